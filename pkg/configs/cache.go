package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig 目录查询缓存.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", time.Minute)
	v.SetDefault("cache.prefix", "catalog.")
}
