// Package api 挂载 HTTP 接口，路由前缀由 server.base_path 决定.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/handle"
	"github.com/yeisme/papervault/pkg/internal/router"
	"github.com/yeisme/papervault/pkg/internal/storage"
	"github.com/yeisme/papervault/pkg/middleware"
	"github.com/yeisme/papervault/pkg/scheduler"
)

// Options 路由组依赖，Manager 与 Scheduler 可为 nil.
type Options struct {
	BasePath  string
	Handlers  *handle.Handlers
	Verifier  middleware.TokenVerifier
	Manager   *storage.Manager
	Scheduler *scheduler.Scheduler
}

// RegisterGroup 注册业务、健康检查与管理路由到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, opts Options) *gin.Engine {
	g := e.Group(opts.BasePath)

	if opts.Manager != nil {
		g.Use(middleware.StorageMiddleware(opts.Manager))
	}

	if opts.Scheduler != nil {
		g.Use(middleware.SchedulerMiddleware(opts.Scheduler))
	}

	router.Register(g, opts.Handlers, opts.Verifier)
	router.RegisterHealthCheckRoute(g)
	router.RegisterAdminRoutes(g, opts.Handlers, opts.Verifier)

	return e
}
