package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/papervault/pkg/auth"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIssuer() *auth.Issuer {
	return auth.NewIssuer(configs.AuthConfig{JWTSecret: "test-secret-123", TokenTTL: time.Hour, Issuer: "papervault"})
}

func protected(issuer *auth.Issuer) *gin.Engine {
	r := gin.New()
	r.GET("/admin",
		middleware.AuthMiddleware(issuer),
		middleware.RequireMinRole(middleware.RoleAdmin),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"role":   middleware.GetRole(c).String(),
				"claims": middleware.GetClaims(c) != nil,
			})
		})

	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestAuthMiddleware(t *testing.T) {
	issuer := newIssuer()
	r := protected(issuer)

	adminToken, _, err := issuer.Issue(auth.RoleAdmin)
	require.NoError(t, err)

	userToken, _, err := issuer.Issue("viewer")
	require.NoError(t, err)

	expired := newIssuer().WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expiredToken, _, err := expired.Issue(auth.RoleAdmin)
	require.NoError(t, err)

	other := auth.NewIssuer(configs.AuthConfig{JWTSecret: "another-secret", TokenTTL: time.Hour, Issuer: "papervault"})
	foreignToken, _, err := other.Issue(auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"malformed", "Token abc", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"garbage", "Bearer abc.def", http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"wrong secret", "Bearer " + foreignToken, http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"not admin", "Bearer " + userToken, http.StatusForbidden, `{"error":"Forbidden"}`},
		{"admin", "Bearer " + adminToken, http.StatusOK, `{"role":"admin","claims":true}`},
		{"lowercase scheme", "bearer " + adminToken, http.StatusOK, `{"role":"admin","claims":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRequireMinRole_IgnoresRoleHeader(t *testing.T) {
	r := gin.New()
	r.GET("/admin", middleware.RequireMinRole(middleware.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Role", "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "admin", middleware.RoleAdmin.String())
	assert.Equal(t, "anonymous", middleware.RoleAnonymous.String())
	assert.Equal(t, "anonymous", middleware.Role(42).String())
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	cfg := configs.CircuitBreakerConfig{
		Enabled:     true,
		FailureRate: 0.5,
		MinRequests: 2,
		Interval:    time.Minute,
		OpenFor:     time.Minute,
		HalfOpenMax: 1,
	}

	r := gin.New()
	r.Use(middleware.CircuitBreakerMiddleware(cfg))
	r.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	call := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		return w
	}

	// 失败响应原样返回
	for range 2 {
		w := call("/boom")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"boom"}`, w.Body.String())
	}

	w := call("/boom")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Service temporarily unavailable"}`, w.Body.String())

	// 其他路由有独立的熔断器
	assert.Equal(t, http.StatusOK, call("/ok").Code)

	// 未匹配的路由不计数
	for range 3 {
		assert.Equal(t, http.StatusNotFound, call("/missing").Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1, Key: "global"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, second.Body.String())
}

func TestRateLimitMiddleware_PerHeader(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1, Key: "header:X-Client"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware(configs.ServerConfig{AllowOrigins: []string{"https://example.edu"}}))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://example.edu")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleFromContext_Default(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, middleware.RoleAnonymous, middleware.RoleFromContext(req.Context()))
	assert.Equal(t, "anonymous", middleware.Role(-1).String())
}
