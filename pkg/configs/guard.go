package configs

import (
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig 令牌桶限流，超出返回 429.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"`
	Burst   int     `mapstructure:"burst" rule:"min=0"`
	// Key 取值 global、ip 或 header:<Name>，请求头缺失时按 IP 计.
	Key string `mapstructure:"key"`
}

// CircuitBreakerConfig 按路由熔断，只把 5xx 计为失败.
type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	FailureRate float64       `mapstructure:"failure_rate" rule:"gte=0,lte=1"`
	MinRequests uint32        `mapstructure:"min_requests"`
	Interval    time.Duration `mapstructure:"interval"` // 计数清零周期，0 表示不清零
	OpenFor     time.Duration `mapstructure:"open_for"` // 打开后多久进入半开
	HalfOpenMax uint32        `mapstructure:"half_open_max"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.key", "ip")
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.open_for", 30*time.Second)
	v.SetDefault("circuit_breaker.half_open_max", 3)
}
