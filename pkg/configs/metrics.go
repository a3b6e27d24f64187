package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`                            // 是否启用Metrics
	Path           string            `mapstructure:"path" rule:"omitempty,startswith=/"` // 暴露路径
	Pprof          bool              `mapstructure:"pprof"`                              // 是否同时暴露 pprof
	RuntimeMetrics bool              `mapstructure:"runtime_metrics"`                    // 是否收集运行时指标
	Labels         map[string]string `mapstructure:"labels"`                             // 默认常量标签
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.labels", map[string]string{
		"service": "papervault",
		"version": AppVersion,
	})
}

// GetPath 返回指标暴露路径.
func (c *MetricsConfig) GetPath() string {
	if c.Path == "" {
		return "/metrics"
	}

	return c.Path
}
