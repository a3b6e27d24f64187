package middleware

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/log"
)

var errUpstream = errors.New("5xx response")

// breakers 每个路由模板一个熔断器，上传故障不影响目录查询.
type breakers struct {
	cfg configs.CircuitBreakerConfig
	m   sync.Map // route -> *gobreaker.CircuitBreaker
}

func (b *breakers) get(route string) *gobreaker.CircuitBreaker {
	if cb, ok := b.m.Load(route); ok {
		return cb.(*gobreaker.CircuitBreaker)
	}

	cb, _ := b.m.LoadOrStore(route, gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        route,
		MaxRequests: b.cfg.HalfOpenMax,
		Interval:    b.cfg.Interval,
		Timeout:     b.cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= b.cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l := log.Logger()
			l.Warn().Str("route", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}))

	return cb.(*gobreaker.CircuitBreaker)
}

// CircuitBreakerMiddleware 熔断打开或半开名额用尽时返回 503.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	b := &breakers{cfg: cfg}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}

		_, err := b.get(c.Request.Method+" "+route).Execute(func() (any, error) {
			c.Next()

			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errUpstream
			}

			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		}
	}
}
