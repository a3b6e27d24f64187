package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KVConfig 目录缓存后端，memory 与 groupcache 无需外部服务.
type KVConfig struct {
	Type       string             `mapstructure:"type" rule:"oneof=memory redis nats groupcache"`
	Redis      KVRedisConfig      `mapstructure:"redis"`
	NATS       KVNATSConfig       `mapstructure:"nats"`
	Groupcache KVGroupcacheConfig `mapstructure:"groupcache"`
}

type KVRedisConfig struct {
	Addr        string        `mapstructure:"addr"         rule:"hostname_port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"           rule:"min=0,max=15"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	OpTimeout   time.Duration `mapstructure:"op_timeout"` // 读写超时
}

// KVNATSConfig JetStream KV bucket，不存在时自动创建.
type KVNATSConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
	Replicas int    `mapstructure:"replicas" rule:"min=0,max=5"`
}

// KVGroupcacheConfig Peers 为空时只在本进程内缓存.
type KVGroupcacheConfig struct {
	Name     string   `mapstructure:"name"      rule:"required"`
	MaxBytes int64    `mapstructure:"max_bytes" rule:"min=1048576"`
	Self     string   `mapstructure:"self"`
	Peers    []string `mapstructure:"peers"`
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.dial_timeout", 3*time.Second)
	v.SetDefault("kv.redis.op_timeout", time.Second)

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", "papervault_catalog")
	v.SetDefault("kv.nats.replicas", 1)

	v.SetDefault("kv.groupcache.name", "papervault-catalog")
	v.SetDefault("kv.groupcache.max_bytes", 32<<20)
	v.SetDefault("kv.groupcache.self", "http://localhost:8080")
	v.SetDefault("kv.groupcache.peers", []string{})
}
