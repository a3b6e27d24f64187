package configs

import (
	"time"

	"github.com/spf13/viper"
)

// TracingConfig OpenTelemetry 导出配置，关闭时 span 由 noop provider 吸收.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"    rule:"oneof=otlp-http otlp-grpc zipkin"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"` // 仅 otlp-grpc 使用
	SampleRate  float64 `mapstructure:"sample_rate" rule:"gte=0,lte=1"`
	// FlushEvery 批量导出间隔.
	FlushEvery time.Duration     `mapstructure:"flush_every"`
	Attributes map[string]string `mapstructure:"attributes"`
}

func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "papervault")
	v.SetDefault("tracing.exporter", "otlp-http")
	v.SetDefault("tracing.endpoint", "http://localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.flush_every", 5*time.Second)
	v.SetDefault("tracing.attributes", map[string]string{})
}
