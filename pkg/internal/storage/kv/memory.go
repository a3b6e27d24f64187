package kv

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time // 零值表示不过期
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// MemoryKV 基于 sync.Map 的进程内 KV，支持 TTL（惰性过期）.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(context.Context, any) (KVStore, error) {
	return NewMemory(), nil
}

// NewMemory 直接返回 *MemoryKV，便于测试使用.
func NewMemory() *MemoryKV {
	return &MemoryKV{now: time.Now}
}

func (m *MemoryKV) load(key string) (memoryEntry, bool) {
	v, ok := m.data.Load(key)
	if !ok {
		return memoryEntry{}, false
	}

	e, ok := v.(memoryEntry)
	if !ok {
		return memoryEntry{}, false
	}

	if e.expired(m.now()) {
		m.data.CompareAndDelete(key, v)
		return memoryEntry{}, false
	}

	return e, true
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.load(key)
	if !ok {
		return nil, notFound(key)
	}

	return append([]byte(nil), e.value...), nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.data.Store(key, e)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// DeletePrefix 删除前缀下的键.
func (m *MemoryKV) DeletePrefix(_ context.Context, prefix string) (int, error) {
	n := 0

	m.data.Range(func(key, _ any) bool {
		if k, ok := key.(string); ok && strings.HasPrefix(k, prefix) {
			if _, loaded := m.data.LoadAndDelete(k); loaded {
				n++
			}
		}

		return true
	})

	return n, nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)
	return ok, nil
}

// Keys 获取匹配模式的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)

	m.data.Range(func(key, _ any) bool {
		k, ok := key.(string)
		if !ok {
			return true
		}

		if _, live := m.load(k); live && matchPattern(pattern, k) {
			keys = append(keys, k)
		}

		return true
	})

	return keys, nil
}

// Close 内存实现无需操作.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
