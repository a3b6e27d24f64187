package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/papervault/pkg/context"
	"github.com/yeisme/papervault/pkg/internal/storage"
	"github.com/yeisme/papervault/pkg/scheduler"
)

// StorageMiddleware 把存储管理器放入请求 context，供健康检查使用.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}

// SchedulerMiddleware 把调度器放入请求 context，供管理接口使用.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithScheduler(c.Request.Context(), sched))
		c.Next()
	}
}

// GetScheduler 取出调度器，未注入时为 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	return ctxPkg.GetScheduler(c.Request.Context())
}
