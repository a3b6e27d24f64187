// Package router 把处理器绑定到 gin 路由组，处理器实现由 pkg/internal/handle 提供.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/handle"
	"github.com/yeisme/papervault/pkg/middleware"
)

// Register 绑定业务路由，admin 组需要管理员令牌：
//
//	POST /login
//	GET  /branches /semesters /subjects /types /files
//	POST /upload
//	GET  /pending               (admin)
//	POST /approve/:id           (admin)
//	POST /reject/:id            (admin)
//	POST /move/:id              (admin)
func Register(g *gin.RouterGroup, h *handle.Handlers, verifier middleware.TokenVerifier) {
	g.POST("/login", h.Login)

	g.GET("/branches", h.Branches)
	g.GET("/semesters", h.Semesters)
	g.GET("/subjects", h.Subjects)
	g.GET("/types", h.Types)
	g.GET("/files", h.Files)

	g.POST("/upload", h.Upload)

	admin := AdminGroup(g, verifier)
	{
		admin.GET("/pending", h.Pending)
		admin.POST("/approve/:id", h.Approve)
		admin.POST("/reject/:id", h.Reject)
		admin.POST("/move/:id", h.Move)
	}
}

// AdminGroup 返回要求管理员令牌的子路由组.
func AdminGroup(g *gin.RouterGroup, verifier middleware.TokenVerifier) *gin.RouterGroup {
	return g.Group("", middleware.AuthMiddleware(verifier), middleware.RequireMinRole(middleware.RoleAdmin))
}
