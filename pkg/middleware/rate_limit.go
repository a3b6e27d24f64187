package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/papervault/pkg/configs"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepTick = time.Minute
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterStore 按键保存令牌桶，闲置超过 limiterIdleTTL 的条目会被回收.
type limiterStore struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	entries map[string]*limiterEntry
	now     func() time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		rps:     rate.Limit(rps),
		burst:   burst,
		entries: map[string]*limiterEntry{},
		now:     time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.entries[key] = e
	}

	e.seen = s.now()

	return e.lim
}

func (s *limiterStore) evictIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-limiterIdleTTL)
	for k, e := range s.entries {
		if e.seen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// keyFunc 根据配置选择限流维度：global、ip 或 header:Name.
func keyFunc(mode string) func(c *gin.Context) string {
	mode = strings.TrimSpace(mode)

	switch {
	case mode == "" || strings.EqualFold(mode, "global"):
		return func(*gin.Context) string { return "global" }
	case len(mode) > len("header:") && strings.EqualFold(mode[:len("header:")], "header:"):
		name := mode[len("header:"):]

		return func(c *gin.Context) string {
			if v := c.GetHeader(name); v != "" {
				return "h:" + v
			}

			return "ip:" + c.ClientIP()
		}
	default:
		return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}
}

// RateLimitMiddleware 令牌桶限流，超限返回 429 并带 Retry-After.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := max(cfg.Burst, 1)
	store := newLimiterStore(cfg.RPS, burst)
	key := keyFunc(cfg.Key)

	go func() {
		ticker := time.NewTicker(limiterSweepTick)
		defer ticker.Stop()

		for range ticker.C {
			store.evictIdle()
		}
	}()

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))

	return func(c *gin.Context) {
		if !store.get(key(c)).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})

			return
		}

		c.Next()
	}
}
