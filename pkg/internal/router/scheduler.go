package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/internal/handle"
	"github.com/yeisme/papervault/pkg/middleware"
)

// RegisterAdminRoutes 注册调度器与巡检路由，均需要管理员令牌.
func RegisterAdminRoutes(g *gin.RouterGroup, h *handle.Handlers, verifier middleware.TokenVerifier) {
	admin := AdminGroup(g.Group("/admin"), verifier)
	{
		admin.GET("/scheduler/jobs", handle.SchedulerJobs)
		admin.POST("/scheduler/jobs/:name/run", handle.SchedulerRunJob)
		admin.POST("/sweep", h.Sweep)
	}
}
