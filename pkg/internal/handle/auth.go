package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/auth"
	"github.com/yeisme/papervault/pkg/internal/types"
)

// Login 管理员登录.
//
//	@Summary		管理员登录
//	@Description	校验管理员账号，返回有效期 1 小时的 Bearer 令牌.
//	@Tags			认证
//	@Accept			json
//	@Produce		json
//	@Param			req	body		types.LoginRequest	true	"账号密码"
//	@Success		200	{object}	types.LoginResponse
//	@Failure		401	{object}	types.ErrorResponse	"Invalid credentials"
//	@Router			/api/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 请求体无法解析时与账号错误同样处理
		fail(c, auth.ErrInvalidCredentials)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
