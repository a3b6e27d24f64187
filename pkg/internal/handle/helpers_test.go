package handle_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/papervault/pkg/cache"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/handle"
	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/router"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/storage/kv"
	"github.com/yeisme/papervault/pkg/internal/types"
	"github.com/yeisme/papervault/pkg/middleware"
	"github.com/yeisme/papervault/pkg/scheduler"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n"

func init() {
	gin.SetMode(gin.TestMode)
}

// memBlobs 内存对象存储.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string]time.Time

	failUpload error
}

func (m *memBlobs) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.failUpload != nil {
		return m.failUpload
	}

	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = time.Now().Add(-time.Hour)

	return nil
}

func (m *memBlobs) Move(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("no such key %s", src)
	}

	delete(m.objects, src)
	m.objects[dst] = t

	return nil
}

func (m *memBlobs) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)

	return nil
}

func (m *memBlobs) List(context.Context) ([]types.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.ObjectInfo, 0, len(m.objects))
	for k, t := range m.objects {
		out = append(out, types.ObjectInfo{Key: k, LastModified: t})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out, nil
}

func (m *memBlobs) PublicURL(key string) string {
	return "http://blobs.test/pdfs/" + key
}

func (m *memBlobs) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]

	return ok
}

type server struct {
	engine *gin.Engine
	blobs  *memBlobs
	db     *gorm.DB
	token  string
}

func testConfig() *configs.AppConfig {
	cfg := &configs.AppConfig{}
	cfg.Upload = configs.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 3, EnforcePDF: true}
	cfg.Sweep = configs.SweepConfig{GracePeriod: 10 * time.Minute}
	cfg.Cache = configs.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "catalog."}
	cfg.Auth = configs.AuthConfig{
		JWTSecret:     "test-secret-123",
		TokenTTL:      time.Hour,
		Issuer:        "papervault",
		AdminUsername: "admin",
		AdminPassword: "pass",
	}

	return cfg
}

func newServer(t *testing.T, sched *scheduler.Scheduler) *server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())),
		&gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := testConfig()
	blobs := &memBlobs{objects: map[string]time.Time{}}

	deps := service.Deps{
		DB:     db,
		Blobs:  blobs,
		Cache:  cache.New(kv.NewMemory(), cfg.Cache.Prefix, cfg.Cache.TTL),
		Config: cfg,
	}

	authSvc := service.NewAuthService(cfg.Auth)
	h := handle.New(service.NewFileService(deps), authSvc, service.NewSweepService(deps), cfg)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(handle.MethodNotAllowed)
	engine.NoRoute(handle.NotFound)

	g := engine.Group("/api")
	if sched != nil {
		g.Use(middleware.SchedulerMiddleware(sched))
	}

	router.Register(g, h, authSvc.Issuer())
	router.RegisterHealthCheckRoute(g)
	router.RegisterAdminRoutes(g, h, authSvc.Issuer())

	token, _, err := authSvc.Issuer().Issue("admin")
	require.NoError(t, err)

	return &server{engine: engine, blobs: blobs, db: db, token: token}
}

type request struct {
	method string
	path   string
	body   io.Reader
	ctype  string
	admin  bool
}

func (s *server) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}

	if r.admin {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *server) get(path string) *httptest.ResponseRecorder {
	return s.do(request{method: http.MethodGet, path: path})
}

func (s *server) adminPost(path, body string) *httptest.ResponseRecorder {
	r := request{method: http.MethodPost, path: path, admin: true}
	if body != "" {
		r.body, r.ctype = strings.NewReader(body), "application/json"
	}

	return s.do(r)
}

type part struct {
	name    string
	content string
}

// multipartBody 构造上传表单，fields 为空值的字段不写入.
func multipartBody(t *testing.T, fields map[string]string, files ...part) (io.Reader, string) {
	t.Helper()

	return multipartBodyAs(t, "files", fields, files...)
}

// multipartBodyAs 与 multipartBody 相同，文件字段名为 field.
func multipartBodyAs(t *testing.T, field string, fields map[string]string, files ...part) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if v != "" {
			require.NoError(t, w.WriteField(k, v))
		}
	}

	for _, f := range files {
		fw, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)

		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func meta(branch, semester, subject, typ string) map[string]string {
	return map[string]string{"branch": branch, "semester": semester, "subject": subject, "type": typ}
}

func (s *server) upload(t *testing.T, fields map[string]string, files ...part) *httptest.ResponseRecorder {
	t.Helper()

	body, ctype := multipartBody(t, fields, files...)

	return s.do(request{method: http.MethodPost, path: "/api/upload", body: body, ctype: ctype})
}

// uploadOne 上传单个 PDF 并返回记录 ID.
func (s *server) uploadOne(t *testing.T, fields map[string]string, name string) string {
	t.Helper()

	w := s.upload(t, fields, part{name, pdfBody})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res types.UploadResult
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Files, 1)

	return res.Files[0]
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}
