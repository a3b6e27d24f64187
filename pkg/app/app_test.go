package app_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/papervault/pkg/api"
	"github.com/yeisme/papervault/pkg/app"
	"github.com/yeisme/papervault/pkg/cache"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/handle"
	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/storage/kv"
	"github.com/yeisme/papervault/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, mutate func(*configs.AppConfig)) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())),
		&gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	cfg := &configs.AppConfig{}
	cfg.Server = configs.ServerConfig{BasePath: "/api", Gzip: true}
	cfg.Upload = configs.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 2, EnforcePDF: true}
	cfg.Cache = configs.CacheConfig{TTL: time.Minute, Prefix: "catalog."}
	cfg.Auth = configs.AuthConfig{
		JWTSecret:     "app-test-secret",
		TokenTTL:      time.Hour,
		Issuer:        "papervault",
		AdminUsername: "admin",
		AdminPassword: "pass",
	}

	if mutate != nil {
		mutate(cfg)
	}

	deps := service.Deps{
		DB:     db,
		Cache:  cache.New(kv.NewMemory(), cfg.Cache.Prefix, cfg.Cache.TTL),
		Config: cfg,
	}
	authSvc := service.NewAuthService(cfg.Auth)

	return app.NewEngine(cfg, api.Options{
		BasePath: cfg.Server.BasePath,
		Handlers: handle.New(service.NewFileService(deps), authSvc, service.NewSweepService(deps), cfg),
		Verifier: authSvc.Issuer(),
	})
}

func serve(e *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func TestNewEngine_Fallbacks(t *testing.T) {
	e := newEngine(t, nil)

	w := serve(e, http.MethodGet, "/api/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())

	w = serve(e, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	// 调试模式之外不暴露 swagger
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/swagger/index.html", "").Code)
}

func TestNewEngine_Routes(t *testing.T) {
	e := newEngine(t, nil)

	w := serve(e, http.MethodGet, "/api/branches", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = serve(e, http.MethodPost, "/api/login", `{"username":"admin","password":"pass"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)

	// 未注入存储管理器时健康检查失败
	w = serve(e, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unhealthy"`)
}

func TestNewEngine_BasePathAndMetrics(t *testing.T) {
	e := newEngine(t, func(c *configs.AppConfig) {
		c.Server.BasePath = "/v1"
		c.Metrics = configs.MetricsConfig{Enabled: true, Path: "/metrics"}
	})
	require.NoError(t, metrics.InitMetrics(configs.MetricsConfig{Enabled: true}))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/v1/branches", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/api/branches", "").Code)

	w := serve(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestNewEngine_CORS(t *testing.T) {
	e := newEngine(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/branches", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
