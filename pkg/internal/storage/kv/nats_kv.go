package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/papervault/pkg/configs"
)

// NATSKV 基于 JetStream KV bucket，键只允许 [-/_=.a-zA-Z0-9].
//
// bucket 只保留最新版本，条目级 TTL 通过 sealValue 写入值头部，读取时惰性清理.
type NATSKV struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSKV 连接 NATS 并创建或打开 bucket.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.KVNATSConfig)
	if !ok {
		return nil, fmt.Errorf("invalid NATS config")
	}

	opts := []nats.Option{nats.Name("papervault-kv")}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "papervault catalog cache",
			History:     1,
			Replicas:    cfg.Replicas,
		})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open KV bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSKV{conn: nc, kv: bucket}, nil
}

// live 读取未过期的值，过期条目顺手清除.
func (n *NATSKV) live(key string) ([]byte, bool, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("nats kv get %s: %w", key, err)
	}

	val, expired := openValue(entry.Value(), time.Now())
	if expired {
		_ = n.kv.Purge(key)
		return nil, false, nil
	}

	return val, true, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	val, ok, err := n.live(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, notFound(key)
	}

	return val, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if _, err := n.kv.Put(key, sealValue(value, ttl, time.Now())); err != nil {
		return fmt.Errorf("nats kv put %s: %w", key, err)
	}

	return nil
}

// Delete 清除键及其历史.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	if err := n.kv.Purge(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("nats kv purge %s: %w", key, err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := n.live(key)
	return ok, err
}

func (n *NATSKV) allKeys() ([]string, error) {
	keys, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv keys: %w", err)
	}

	return keys, nil
}

// Keys 列出匹配模式且未过期的键.
func (n *NATSKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys, err := n.allKeys()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(keys))

	for _, key := range keys {
		if !matchPattern(pattern, key) {
			continue
		}

		if _, ok, err := n.live(key); err == nil && ok {
			out = append(out, key)
		}
	}

	return out, nil
}

// DeletePrefix 清除前缀下的键.
func (n *NATSKV) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := n.allKeys()
	if err != nil {
		return 0, err
	}

	var (
		count int
		errs  []error
	)

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if err := n.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}

		count++
	}

	return count, errors.Join(errs...)
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
