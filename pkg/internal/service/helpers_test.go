package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/papervault/pkg/cache"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/storage/kv"
	"github.com/yeisme/papervault/pkg/internal/types"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n"

type blob struct {
	data     []byte
	modified time.Time
}

// memBlobs 内存对象存储.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string]blob
	now     func() time.Time

	failUpload error
	failMove   error
	failRemove error
	moves      []string
}

func newMemBlobs(now func() time.Time) *memBlobs {
	return &memBlobs{objects: map[string]blob{}, now: now}
}

func (m *memBlobs) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.failUpload != nil {
		return m.failUpload
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = blob{data: data, modified: m.now()}

	return nil
}

func (m *memBlobs) Move(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.moves = append(m.moves, src+"->"+dst)

	if m.failMove != nil {
		return m.failMove
	}

	b, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("no such key %s", src)
	}

	delete(m.objects, src)
	m.objects[dst] = b

	return nil
}

func (m *memBlobs) Remove(_ context.Context, key string) error {
	if m.failRemove != nil {
		return m.failRemove
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)

	return nil
}

func (m *memBlobs) List(context.Context) ([]types.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.ObjectInfo, 0, len(m.objects))
	for k, b := range m.objects {
		out = append(out, types.ObjectInfo{Key: k, Size: int64(len(b.data)), LastModified: b.modified})
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

func (m *memBlobs) put(key string, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = blob{data: []byte(pdfBody), modified: modified}
}

// clock 可控时钟.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type env struct {
	db    *gorm.DB
	blobs *memBlobs
	cache *cache.Cache
	clock *clock
	cfg   *configs.AppConfig
	deps  service.Deps
	files *service.FileService
}

func testConfig() *configs.AppConfig {
	cfg := &configs.AppConfig{}
	cfg.Upload = configs.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 5, EnforcePDF: true}
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := testConfig()
	blobs := newMemBlobs(clk.Now)
	c := cache.New(kv.NewMemory(), cfg.Cache.Prefix, cfg.Cache.TTL)

	deps := service.Deps{
		DB:     newTestDB(t),
		Blobs:  blobs,
		Cache:  c,
		Config: cfg,
		Now:    clk.Now,
	}

	return &env{
		db:    deps.DB,
		blobs: blobs,
		cache: c,
		clock: clk,
		cfg:   cfg,
		deps:  deps,
		files: service.NewFileService(deps),
	}
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

func memFile(name, body string) types.UploadFile {
	return types.UploadFile{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadSeekCloser, error) {
			return nopCloser{bytes.NewReader([]byte(body))}, nil
		},
	}
}

func pdf(name string) types.UploadFile {
	return memFile(name, pdfBody)
}

func meta(branch, semester, subject, typ string) types.UploadMeta {
	return types.UploadMeta{Branch: branch, Semester: semester, Subject: subject, Type: typ}
}

// upload 上传单个 PDF，返回记录 ID.
func (e *env) upload(t *testing.T, m types.UploadMeta, name string) string {
	t.Helper()

	res, err := e.files.Upload(context.Background(), m, []types.UploadFile{pdf(name)})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	e.clock.Advance(time.Second)

	return res.Files[0]
}

// approved 上传并通过审核.
func (e *env) approved(t *testing.T, m types.UploadMeta, name string) string {
	t.Helper()

	id := e.upload(t, m, name)

	_, err := e.files.Approve(context.Background(), id)
	require.NoError(t, err)

	return id
}

func (e *env) record(t *testing.T, id string) model.FileRecord {
	t.Helper()

	var rec model.FileRecord
	require.NoError(t, e.db.Where("id = ?", id).Take(&rec).Error)

	return rec
}

func failCallback(db *gorm.DB, op string) {
	errBoom := errors.New("boom")

	switch op {
	case "create":
		_ = db.Callback().Create().Before("gorm:create").Register("test:fail", func(tx *gorm.DB) {
			_ = tx.AddError(errBoom)
		})
	case "update":
		_ = db.Callback().Update().Before("gorm:update").Register("test:fail", func(tx *gorm.DB) {
			_ = tx.AddError(errBoom)
		})
	}
}
