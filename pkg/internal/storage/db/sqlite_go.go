//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/papervault/pkg/configs"
)

// 纯 Go 版本，CGO_ENABLED=0 时使用.
func init() {
	RegisterDialectorFactory(func(dsn string) gorm.Dialector {
		return sqlite.Open(dsn)
	}, configs.SQLite)
}
