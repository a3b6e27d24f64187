// Package main 启动应用程序
package main

import (
	"fmt"
	"os"

	"github.com/yeisme/papervault/pkg/cmd"
)

//	@title			PaperVault API
//	@version		0.1.0
//	@description	PaperVault 学习资料库：学生上传 PDF，管理员审核后按 branch/semester/subject/type 分类公开.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
