package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS  MQType = "nats"
	MQTypeRedis MQType = "redis"
)

const (
	DefaultMQURL          = "nats://localhost:4222"
	DefaultMQClientName   = "papervault"
	DefaultMaxReconnects  = 5
	DefaultReconnectWait  = 2 * time.Second
	DefaultPingInterval   = 20 * time.Second
	DefaultReconnectBuf   = 8 << 20 // 断线期间缓存的发布数据
	DefaultQueueGroup     = "papervault"
	DefaultDurablePrefix  = "papervault"
	DefaultMQRedisAddress = "localhost:6379"
)

// MQConfig 事件流配置，只在 events.enabled 为 true 时连接.
type MQConfig struct {
	Type  MQType        `mapstructure:"type"  rule:"oneof=nats redis"`
	NATS  MQNATSConfig  `mapstructure:"nats"`
	Redis MQRedisConfig `mapstructure:"redis"`
}

// MQNATSConfig NATS 连接与 JetStream 选项.
type MQNATSConfig struct {
	URL           string        `mapstructure:"url"`
	ClusterURLs   []string      `mapstructure:"cluster_urls"` // 非空时优先于 url
	ClientName    string        `mapstructure:"client_name"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	JWT           string        `mapstructure:"jwt"`
	NKey          string        `mapstructure:"nkey"` // 与 jwt 搭配时为种子，单独使用时为种子文件路径
	MaxReconnects int           `mapstructure:"max_reconnects" rule:"min=-1"` // -1 表示无限重连
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	ReconnectBuf  int           `mapstructure:"reconnect_buf"  rule:"min=0"`
	// QueueGroup 非空时多个实例共同消费同一主题，每条事件只审计一次.
	QueueGroup string `mapstructure:"queue_group"`

	JetStream     bool   `mapstructure:"jetstream"`
	AutoProvision bool   `mapstructure:"auto_provision"`
	TrackMsgID    bool   `mapstructure:"track_msg_id"`
	AckAsync      bool   `mapstructure:"ack_async"`
	DurablePrefix string `mapstructure:"durable_prefix"`
}

// MQRedisConfig Redis Pub/Sub 配置，投递语义为至多一次.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// Servers 返回连接地址列表.
func (c *MQNATSConfig) Servers() []string {
	if len(c.ClusterURLs) > 0 {
		return c.ClusterURLs
	}

	return []string{c.URL}
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeNATS)

	v.SetDefault("mq.nats.url", DefaultMQURL)
	v.SetDefault("mq.nats.cluster_urls", []string{})
	v.SetDefault("mq.nats.client_name", DefaultMQClientName)
	v.SetDefault("mq.nats.user", "")
	v.SetDefault("mq.nats.password", "")
	v.SetDefault("mq.nats.jwt", "")
	v.SetDefault("mq.nats.nkey", "")
	v.SetDefault("mq.nats.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.nats.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.nats.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.nats.reconnect_buf", DefaultReconnectBuf)
	v.SetDefault("mq.nats.queue_group", DefaultQueueGroup)
	v.SetDefault("mq.nats.jetstream", false)
	v.SetDefault("mq.nats.auto_provision", true)
	v.SetDefault("mq.nats.track_msg_id", true)
	v.SetDefault("mq.nats.ack_async", false)
	v.SetDefault("mq.nats.durable_prefix", DefaultDurablePrefix)

	v.SetDefault("mq.redis.addr", DefaultMQRedisAddress)
	v.SetDefault("mq.redis.password", "")
	v.SetDefault("mq.redis.db", 0)
}
