// Package cache 提供基于键值存储的泛型读穿缓存.
//
// 值使用 sonic 序列化，键由前缀加 xxhash 摘要组成，可整体按前缀失效.
//
//	c := cache.New(kvStore, "catalog.", time.Minute)
//	branches, err := cache.GetOrSet(ctx, c, c.Key("branches"), func(ctx context.Context) ([]string, error) {
//		return loadBranches(ctx)
//	})
//
//	// 数据变更后
//	_ = c.Invalidate(ctx)
//
// 并发未命中同一键时只会调用一次 loader（singleflight），loader 收到的 ctx 不随调用方取消.
// 失效与回填存在竞态时，以代数计数丢弃过期的回填结果.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/papervault/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	prefix  string
	ttl     time.Duration
	group   singleflight.Group
	gen     atomic.Uint64
}

// New 创建缓存实例，prefix 用于键名空间与整体失效.
func New(kvStore kv.KVStore, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		kvStore: kvStore,
		prefix:  prefix,
		ttl:     ttl,
	}
}

// Key 由查询参数生成定长键，参数之间以 \x00 分隔避免拼接歧义.
func (c *Cache) Key(parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x00"))

	return c.prefix + strconv.FormatUint(sum, 16)
}

// Get 泛型获取缓存值，未命中返回 kv.ErrNotFound.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值，使用缓存的默认 TTL.
func Set[T any](ctx context.Context, c *Cache, key string, value T) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, c.ttl)
}

// GetOrSet 读穿：命中直接返回，否则调用 loader 并回填.
// 缓存读写失败不影响结果，只会退化为直接调用 loader.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, loader func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return loader(ctx)
	}

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	// 共享加载不随首个调用方取消
	ctx = context.WithoutCancel(ctx)

	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.gen.Load()

		value, err := loader(ctx)
		if err != nil {
			return value, err
		}

		if c.gen.Load() == gen {
			_ = Set(ctx, c, key, value)
		}

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New("cache: unexpected loader result type")
	}

	return value, nil
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// Invalidate 删除该前缀下的全部键.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}

	c.gen.Add(1)

	if _, err := kv.DeletePrefix(ctx, c.kvStore, c.prefix); err != nil {
		return fmt.Errorf("invalidate %s*: %w", c.prefix, err)
	}

	return nil
}
