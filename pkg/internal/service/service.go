// Package service 实现目录查询、上传、审核、登录与孤儿对象巡检.
//
// 服务只依赖 gorm 与 BlobStore 接口，缓存与事件发布是可选的.
//
//	deps := service.DepsFromManager(mgr, cfg)
//	files := service.NewFileService(deps)
//	branches, err := files.Branches(ctx)
package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yeisme/papervault/pkg/cache"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/model"
	"github.com/yeisme/papervault/pkg/internal/storage"
	"github.com/yeisme/papervault/pkg/internal/types"
	nlog "github.com/yeisme/papervault/pkg/log"
	"github.com/yeisme/papervault/pkg/queue"
	"github.com/yeisme/papervault/pkg/tracing"
)

// BlobStore 对象存储操作，由 s3.Client 实现.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Move(ctx context.Context, src, dst string) error
	Remove(ctx context.Context, key string) error
	List(ctx context.Context) ([]types.ObjectInfo, error)
	PublicURL(key string) string
}

// Deps 服务依赖.
type Deps struct {
	DB    *gorm.DB
	Blobs BlobStore
	// Cache 为 nil 时目录查询直接读库.
	Cache *cache.Cache
	// Events 为 nil 时不发布事件.
	Events queue.Publisher
	Config *configs.AppConfig
	Now    func() time.Time
}

// DepsFromManager 由存储管理器组装依赖.
func DepsFromManager(m *storage.Manager, cfg *configs.AppConfig) Deps {
	d := Deps{
		DB:     m.DB.DB,
		Blobs:  m.S3,
		Config: cfg,
	}

	if cfg.Cache.Enabled && m.KV != nil {
		d.Cache = cache.New(m.KV, cfg.Cache.Prefix, cfg.Cache.TTL)
	}

	if cfg.Events.Enabled && m.MQ != nil {
		d.Events = m.MQ
	}

	return d
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}

	return time.Now().UTC()
}

// eventEnabled 按主题读取事件开关.
func (d Deps) eventEnabled(topic string) bool {
	if d.Events == nil || d.Config == nil || !d.Config.Events.Enabled {
		return false
	}

	f := d.Config.Events.File

	switch topic {
	case queue.TopicFileUploaded:
		return f.Uploaded
	case queue.TopicFileApproved:
		return f.Approved
	case queue.TopicFileRejected:
		return f.Rejected
	case queue.TopicFileDeleted:
		return f.Deleted
	case queue.TopicFileMoved:
		return f.Moved
	case queue.TopicSweepOrphanRemoved:
		return f.Swept
	default:
		return false
	}
}

// publishFile 尽力发布文件事件，失败只记录日志.
func (d Deps) publishFile(ctx context.Context, l zerolog.Logger, topic string, rec *model.FileRecord, prevType model.FileType, actor string) {
	if !d.eventEnabled(topic) {
		return
	}

	payload := queue.FileEventPayload{
		FileID:   rec.ID,
		Filename: rec.Filename,
		Key:      rec.ObjectKey(),
		Branch:   rec.Branch,
		Semester: rec.Semester,
		Subject:  rec.Subject,
		Type:     string(rec.Type),
		Status:   string(rec.Status),
		Actor:    actor,
	}
	if prevType != "" {
		payload.PrevType = string(prevType)
	}

	if err := queue.PublishFileEvent(ctx, d.Events, topic, payload, eventOpts(ctx)...); err != nil {
		l.Warn().Err(err).Str("topic", topic).Str("id", rec.ID).Msg("publish event failed")
	}
}

func eventOpts(ctx context.Context) []func(*queue.EventHeader) {
	opts := []func(*queue.EventHeader){queue.WithProducer("papervault")}

	if sc := tracing.SpanContextFrom(ctx); sc.IsValid() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

// invalidateCatalog 审核变更后清空目录缓存.
func (d Deps) invalidateCatalog(ctx context.Context, l zerolog.Logger) {
	if d.Cache == nil {
		return
	}

	if err := d.Cache.Invalidate(ctx); err != nil {
		l.Warn().Err(err).Msg("invalidate catalog cache failed")
	}
}

func logger(ctx context.Context, component string) zerolog.Logger {
	return nlog.Ctx(ctx, nlog.Component(component))
}
