package kv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/papervault/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// groupcache 的热点缓存不可失效，因此每个键带一个版本号，Set/Delete 递增版本，
// 读取时使用 key#version 作为 groupcache 键，旧版本自然不再命中.
type GroupcacheKV struct {
	cache *groupcache.Group
	peers *groupcache.HTTPPool
	mu    sync.RWMutex
	data  map[string][]byte
	ver   map[string]uint64
}

type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g *groupcacheGetter) Get(_ context.Context, vkey string, dest groupcache.Sink) error {
	i := strings.LastIndexByte(vkey, '#')
	if i < 0 {
		return notFound(vkey)
	}

	key := vkey[:i]

	g.kv.mu.RLock()
	value, exists := g.kv.data[key]
	current := strconv.FormatUint(g.kv.ver[key], 10)
	g.kv.mu.RUnlock()

	if !exists || current != vkey[i+1:] {
		return notFound(key)
	}

	if err := dest.SetBytes(value); err != nil {
		return fmt.Errorf("failed to set bytes to sink: %w", err)
	}

	return nil
}

// NewGroupcacheKV 创建 Groupcache KV 实例，同一进程内 group 名称必须唯一.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.KVGroupcacheConfig)
	if !ok {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	kv := &GroupcacheKV{
		data: make(map[string][]byte),
		ver:  make(map[string]uint64),
	}

	kv.cache = groupcache.NewGroup(gcConfig.Name, gcConfig.MaxBytes, &groupcacheGetter{kv: kv})

	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	return kv, nil
}

func (g *GroupcacheKV) versionedKey(key string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.data[key]; !ok {
		return "", false
	}

	return key + "#" + strconv.FormatUint(g.ver[key], 10), true
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	vkey, ok := g.versionedKey(key)
	if !ok {
		return nil, notFound(key)
	}

	var raw []byte
	if err := g.cache.Get(ctx, vkey, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired := openValue(raw, time.Now())
	if expired {
		_ = g.Delete(ctx, key)
		return nil, notFound(key)
	}

	return append([]byte(nil), val...), nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	sealed := sealValue(append([]byte(nil), value...), ttl, time.Now())

	g.mu.Lock()
	defer g.mu.Unlock()

	g.data[key] = sealed
	g.ver[key]++

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.data, key)
	g.ver[key]++

	return nil
}

// DeletePrefix 删除前缀下的键并递增版本，旧的 groupcache 条目不再命中.
func (g *GroupcacheKV) DeletePrefix(_ context.Context, prefix string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0

	for key := range g.data {
		if strings.HasPrefix(key, prefix) {
			delete(g.data, key)
			g.ver[key]++
			n++
		}
	}

	return n, nil
}

// Exists 检查键是否存在.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取匹配模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.data))
	for key := range g.data {
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
