// Package handle 提供 HTTP 请求处理器，把请求参数交给 service 并统一映射错误.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/auth"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/log"
)

// Handlers 持有业务服务，由 app 层组装后注入 router.
type Handlers struct {
	files *service.FileService
	auth  *service.AuthService
	sweep *service.SweepService
	cfg   *configs.AppConfig
}

// New 创建处理器集合.
func New(files *service.FileService, authSvc *service.AuthService, sweep *service.SweepService, cfg *configs.AppConfig) *Handlers {
	return &Handlers{files: files, auth: authSvc, sweep: sweep, cfg: cfg}
}

// fail 将业务错误映射为状态码与 {"error": msg}.
func fail(c *gin.Context, err error) {
	var (
		status int
		msg    string
	)

	switch service.KindOf(err) {
	case service.KindBadRequest:
		status, msg = http.StatusBadRequest, err.Error()
	case service.KindUnauthorized:
		status, msg = http.StatusUnauthorized, "Unauthorized"
		if errors.Is(err, auth.ErrInvalidCredentials) {
			msg = "Invalid credentials"
		}
	case service.KindInvalidToken:
		status, msg = http.StatusUnauthorized, "Invalid token"
	case service.KindForbidden:
		status, msg = http.StatusForbidden, err.Error()
	default:
		status, msg = http.StatusInternalServerError, rawMessage(err)
	}

	if status >= http.StatusInternalServerError {
		l := log.Ctx(c.Request.Context(), log.Component("handle"))
		l.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// rawMessage 上游错误返回底层原始信息，操作名只写入日志.
func rawMessage(err error) string {
	var se *service.Error
	if errors.As(err, &se) && se.Kind == service.KindUpstream && se.Err != nil {
		return se.Err.Error()
	}

	return err.Error()
}

// MethodNotAllowed 路径存在但方法不匹配.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// NotFound 未知路径.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
