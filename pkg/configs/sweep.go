package configs

import (
	"time"

	"github.com/spf13/viper"
)

// SweepConfig 孤儿对象清理任务.
type SweepConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
	// GracePeriod 比该时间更新的对象不会被清理，避免误删正在上传的文件.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	DryRun      bool          `mapstructure:"dry_run"`
}

func (c *SweepConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.cron", "*/30 * * * *")
	v.SetDefault("sweep.grace_period", 10*time.Minute)
	v.SetDefault("sweep.dry_run", false)
}
