// Package context 在请求 context 中携带运行时依赖：存储管理器与调度器.
// 健康检查与管理接口通过这里取得依赖，未注入时返回 nil.
package context

import (
	"context"

	"github.com/yeisme/papervault/pkg/internal/storage"
	dbc "github.com/yeisme/papervault/pkg/internal/storage/db"
	kvc "github.com/yeisme/papervault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/papervault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/papervault/pkg/internal/storage/s3"
	"github.com/yeisme/papervault/pkg/scheduler"
)

type (
	managerKey   struct{}
	schedulerKey struct{}
)

// WithStorageManager 注入存储管理器.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 取出存储管理器.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// WithScheduler 注入调度器.
func WithScheduler(ctx context.Context, sched *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, sched)
}

// GetScheduler 取出调度器.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	sched, _ := ctx.Value(schedulerKey{}).(*scheduler.Scheduler)
	return sched
}

// GetDBClient 记录库客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetS3Client 对象存储客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// GetKVClient 缓存所用的 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// GetMQClient 事件客户端，未启用事件时为 nil.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}
