package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/papervault/pkg/auth"
	"github.com/yeisme/papervault/pkg/log"
)

const claimsKey = "claims"

// TokenVerifier 校验令牌，由 auth.Issuer 实现.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware 校验 Authorization: Bearer <token>.
//   - 缺失或格式错误返回 401 Unauthorized
//   - 签名错误或过期返回 401 Invalid token
//
// 通过后把角色写入 gin.Context 与 request.Context，供 RequireMinRole 使用.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ParseBearer(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			l := log.Ctx(c.Request.Context(), log.Component("auth"))
			l.Debug().Err(errors.Unwrap(err)).Str("path", c.FullPath()).Msg("token rejected")

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})

			return
		}

		c.Set(claimsKey, claims)
		withRole(c, parseRole(claims.Role))

		c.Next()
	}
}

// GetClaims 返回已校验的令牌声明，未认证时为 nil.
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}

	return nil
}
