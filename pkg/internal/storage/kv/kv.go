// Package kv 提供键值存储接口及 memory、redis、nats、groupcache 实现，用作查询缓存的后端.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/yeisme/papervault/pkg/configs"
)

// ErrNotFound 键不存在或已过期.
var ErrNotFound = errors.New("kv: key not found")

type Client struct {
	KVStore
	Type KVType
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值，不存在时返回 ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl<=0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 按 glob 模式列出键，空模式返回全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// PrefixDeleter 可选接口，后端能原生按前缀批量删除时实现.
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// DeletePrefix 删除 prefix 下的全部键，返回删除数量.
// 后端未实现 PrefixDeleter 时退化为 Keys 加逐个 Delete.
func DeletePrefix(ctx context.Context, store KVStore, prefix string) (int, error) {
	if pd, ok := store.(PrefixDeleter); ok {
		return pd.DeletePrefix(ctx, prefix)
	}

	keys, err := store.Keys(ctx, prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}

	var (
		n    int
		errs []error
	)

	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}

		n++
	}

	return n, errors.Join(errs...)
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var (
	factoriesMu sync.RWMutex
	kvFactories = make(map[KVType]KVFactory)
)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表（有序）.
func GetRegisteredKVTypes() []KVType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factoriesMu.RLock()
	factory, exists := kvFactories[kvType]
	factoriesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// New 按配置创建 KV 客户端.
func New(ctx context.Context, cfg configs.KVConfig) (*Client, error) {
	t := KVType(cfg.Type)

	var sub any

	switch t {
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	}

	store, err := NewKVStore(ctx, t, sub)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, Type: t}, nil
}

// HealthCheck 写入并读取一个探测键.
func (c *Client) HealthCheck(ctx context.Context) error {
	const probe = "health-probe"

	if err := c.Set(ctx, probe, []byte("ok"), time.Minute); err != nil {
		return err
	}

	_, err := c.Get(ctx, probe)

	return err
}

// matchPattern glob 匹配，空模式与 "*" 匹配全部.
func matchPattern(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
