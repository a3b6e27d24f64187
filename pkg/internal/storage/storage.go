// Package storage 聚合关系库、对象存储、KV 与消息队列客户端.
//
//	mgr, err := storage.Init(ctx, configs.GetConfig())
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/papervault/pkg/configs"
	dbc "github.com/yeisme/papervault/pkg/internal/storage/db"
	kvc "github.com/yeisme/papervault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/papervault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/papervault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/papervault/pkg/log"
)

// Manager 聚合所有存储资源，MQ 仅在启用事件时初始化.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	KV *kvc.Client
	MQ *mqc.Client
}

// Init 按配置初始化全部存储，任一必需组件失败即返回错误并释放已打开的资源.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, &cfg.DB, cfg.Metrics.Enabled)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = dbi

	if cfg.DB.AutoMigrate {
		if err := m.DB.Migrate(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
	}

	s3i, err := s3c.New(ctx, cfg.S3)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init s3: %w", err)
	}

	m.S3 = s3i

	kvi, err := kvc.New(ctx, cfg.KV)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	m.KV = kvi

	if cfg.Events.Enabled {
		mqi, err := mqc.New(ctx, cfg.MQ, cfg.Metrics.Enabled)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init mq: %w", err)
		}

		m.MQ = mqi
	}

	nlog.Logger().Info().Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 按依赖反序关闭.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
