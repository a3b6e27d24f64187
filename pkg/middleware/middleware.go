// Package middleware 提供 Gin 中间件：日志、追踪、指标、跨域、限流、熔断、认证与存储注入.
//
// Example:
//
//	engine := gin.New()
//	engine.Use(middleware.Common(cfg)...)
//
//	admin := api.Group("", middleware.AuthMiddleware(issuer), middleware.RequireMinRole(middleware.RoleAdmin))
package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/configs"
)

// Common 返回所有路由共用的中间件链，顺序即执行顺序.
func Common(cfg *configs.AppConfig) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		gin.Recovery(),
		TracingMiddleware(),
		GinLoggerMiddleware(),
		PrometheusMiddleware(),
		CORSMiddleware(cfg.Server),
	}

	if cfg.Server.Gzip {
		chain = append(chain, gzip.Gzip(gzip.DefaultCompression))
	}

	return append(chain,
		RateLimitMiddleware(cfg.RateLimit),
		CircuitBreakerMiddleware(cfg.CircuitBreaker),
	)
}
