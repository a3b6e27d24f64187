package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role 权限递增排列，比较大小即可判断.
type Role int

const (
	RoleAnonymous Role = iota
	RoleAdmin
)

var roleNames = [...]string{
	RoleAnonymous: "anonymous",
	RoleAdmin:     "admin",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return roleNames[RoleAnonymous]
	}

	return roleNames[r]
}

// parseRole 未知角色按 anonymous 处理.
func parseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if name == s {
			return Role(r)
		}
	}

	return RoleAnonymous
}

type roleKey struct{}

// withRole 角色只来自已校验的令牌，请求头无法伪造.
func withRole(c *gin.Context, r Role) {
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), roleKey{}, r))
}

// RoleFromContext 未认证的请求为 anonymous.
func RoleFromContext(ctx context.Context) Role {
	r, _ := ctx.Value(roleKey{}).(Role)
	return r
}

func GetRole(c *gin.Context) Role {
	return RoleFromContext(c.Request.Context())
}

// RequireMinRole 角色不足时返回 403.
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Next()
	}
}
