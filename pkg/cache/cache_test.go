package cache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/papervault/pkg/cache"
	"github.com/yeisme/papervault/pkg/internal/storage/kv"
)

// TestUser 测试用的结构体.
type TestUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func newTestCache() (*cache.Cache, *kv.MemoryKV) {
	store := kv.NewMemory()
	return cache.New(store, "catalog.", time.Minute), store
}

// TestCache_Key 测试键生成.
func TestCache_Key(t *testing.T) {
	c, _ := newTestCache()

	k1 := c.Key("subjects", "CSE", "3")
	k2 := c.Key("subjects", "CSE", "3")
	k3 := c.Key("subjects", "CSE3", "")

	if k1 != k2 {
		t.Errorf("same parts produced different keys: %s vs %s", k1, k2)
	}

	if k1 == k3 {
		t.Errorf("different parts produced the same key %s", k1)
	}

	if !strings.HasPrefix(k1, "catalog.") {
		t.Errorf("key %s missing prefix", k1)
	}

	if strings.ContainsAny(k1, ": ") {
		t.Errorf("key %s contains characters rejected by NATS KV", k1)
	}
}

// TestCache_GetSet 测试 Get 与 Set.
func TestCache_GetSet(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	_, err := cache.Get[TestUser](ctx, c, "catalog.nonexistent")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected kv.ErrNotFound, got %v", err)
	}

	user := TestUser{ID: 1, Name: "Alice", Age: 30}
	if err := cache.Set(ctx, c, "catalog.user1", user); err != nil {
		t.Fatalf("failed to set cache: %v", err)
	}

	got, err := cache.Get[TestUser](ctx, c, "catalog.user1")
	if err != nil {
		t.Fatalf("failed to get cache: %v", err)
	}

	if got != user {
		t.Errorf("retrieved %+v does not match original %+v", got, user)
	}
}

// TestCache_DeleteExists 测试 Delete 与 Exists.
func TestCache_DeleteExists(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	if err := cache.Set(ctx, c, "catalog.k", []string{"a"}); err != nil {
		t.Fatalf("failed to set cache: %v", err)
	}

	ok, err := c.Exists(ctx, "catalog.k")
	if err != nil || !ok {
		t.Fatalf("expected key to exist, got %v %v", ok, err)
	}

	if err := c.Delete(ctx, "catalog.k"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	ok, _ = c.Exists(ctx, "catalog.k")
	if ok {
		t.Error("key should be gone after Delete")
	}
}

// TestGetOrSet 测试读穿逻辑.
func TestGetOrSet(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	key := c.Key("branches")

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"CSE", "ECE"}, nil
	}

	for range 3 {
		got, err := cache.GetOrSet(ctx, c, key, loader)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}

		if len(got) != 2 || got[0] != "CSE" {
			t.Fatalf("unexpected value %v", got)
		}
	}

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

// TestGetOrSet_EmptySlice 空结果也应缓存为空列表而非 nil.
func TestGetOrSet_EmptySlice(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	key := c.Key("semesters", "NONE")

	_, err := cache.GetOrSet(ctx, c, key, func(context.Context) ([]string, error) { return []string{}, nil })
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	got, err := cache.Get[[]string](ctx, c, key)
	if err != nil {
		t.Fatalf("expected cached value: %v", err)
	}

	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

// TestGetOrSet_LoaderError loader 失败时不应回填.
func TestGetOrSet_LoaderError(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	key := c.Key("types")
	boom := errors.New("boom")

	_, err := cache.GetOrSet(ctx, c, key, func(context.Context) ([]string, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	if ok, _ := c.Exists(ctx, key); ok {
		t.Error("failed load should not be cached")
	}
}

// TestGetOrSet_Nil nil 缓存直接调用 loader.
func TestGetOrSet_Nil(t *testing.T) {
	got, err := cache.GetOrSet(context.Background(), nil, "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("unexpected result %d %v", got, err)
	}
}

// TestGetOrSet_Concurrent 并发未命中只加载一次.
func TestGetOrSet_Concurrent(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	key := c.Key("subjects", "CSE", "1")

	var calls atomic.Int32

	release := make(chan struct{})
	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release

		return []string{"DSA"}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := cache.GetOrSet(ctx, c, key, loader); err != nil {
				t.Errorf("GetOrSet failed: %v", err)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 8 {
		t.Errorf("unexpected loader calls %d", n)
	}

	got, err := cache.Get[[]string](ctx, c, key)
	if err != nil || len(got) != 1 {
		t.Errorf("value should be cached, got %v %v", got, err)
	}
}

// TestCache_Invalidate 只删除本前缀下的键.
// TestGetOrSet_FirstCallerCanceled 首个调用方取消不影响共享加载.
func TestGetOrSet_FirstCallerCanceled(t *testing.T) {
	c, _ := newTestCache()
	key := c.Key("subjects", "CSE", "2")

	started := make(chan struct{})
	release := make(chan struct{})

	var (
		once      sync.Once
		loaderErr atomic.Value
	)

	loader := func(ctx context.Context) ([]string, error) {
		once.Do(func() { close(started) })
		<-release

		if err := ctx.Err(); err != nil {
			loaderErr.Store(err)
			return nil, err
		}

		return []string{"OS"}, nil
	}

	first, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.GetOrSet(first, c, key, loader)
	}()

	<-started
	cancel()

	type result struct {
		got []string
		err error
	}

	second := make(chan result, 1)
	go func() {
		got, err := cache.GetOrSet(context.Background(), c, key, loader)
		second <- result{got, err}
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	<-done

	r := <-second
	if r.err != nil || len(r.got) != 1 || r.got[0] != "OS" {
		t.Fatalf("second caller got %v %v", r.got, r.err)
	}

	if err := loaderErr.Load(); err != nil {
		t.Errorf("loader saw canceled context: %v", err)
	}

	got, err := cache.Get[[]string](context.Background(), c, key)
	if err != nil || len(got) != 1 {
		t.Errorf("value should be cached, got %v %v", got, err)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, store := newTestCache()
	ctx := context.Background()

	_ = cache.Set(ctx, c, c.Key("branches"), []string{"CSE"})
	_ = cache.Set(ctx, c, c.Key("types"), []string{"PYQ"})
	_ = store.Set(ctx, "session.abc", []byte("x"), 0)

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	keys, _ := store.Keys(ctx, "catalog.*")
	if len(keys) != 0 {
		t.Errorf("catalog keys left after invalidate: %v", keys)
	}

	if ok, _ := store.Exists(ctx, "session.abc"); !ok {
		t.Error("unrelated key should survive invalidate")
	}
}

// TestGetOrSet_InvalidateDuringLoad 加载期间发生失效时不回填旧值.
func TestGetOrSet_InvalidateDuringLoad(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	key := c.Key("files", "CSE", "3", "DSA", "PYQ")

	got, err := cache.GetOrSet(ctx, c, key, func(context.Context) ([]string, error) {
		_ = c.Invalidate(ctx)
		return []string{"stale.pdf"}, nil
	})
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected result %v %v", got, err)
	}

	if ok, _ := c.Exists(ctx, key); ok {
		t.Error("stale load should not be written back after invalidation")
	}
}

func BenchmarkGetOrSet_Hit(b *testing.B) {
	c, _ := newTestCache()
	ctx := context.Background()
	key := c.Key("branches")
	_ = cache.Set(ctx, c, key, []string{"CSE", "ECE", "ME"})

	b.ResetTimer()

	for b.Loop() {
		_, _ = cache.GetOrSet(ctx, c, key, func(context.Context) ([]string, error) { return nil, nil })
	}
}
