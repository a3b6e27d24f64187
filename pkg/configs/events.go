package configs

import "github.com/spf13/viper"

// EventsConfig 控制审核事件的发布（全局与分主题）.
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关，开启时需要可用的 MQ
	Audit   bool             `mapstructure:"audit"`   // 订阅事件并写入审计日志
	File    FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 文件审核领域的事件开关.
type FileEventsConfig struct {
	Uploaded bool `mapstructure:"uploaded"`
	Approved bool `mapstructure:"approved"`
	Rejected bool `mapstructure:"rejected"`
	Deleted  bool `mapstructure:"deleted"`
	Moved    bool `mapstructure:"moved"`
	Swept    bool `mapstructure:"swept"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.audit", true)

	v.SetDefault("events.file.uploaded", true)
	v.SetDefault("events.file.approved", true)
	v.SetDefault("events.file.rejected", true)
	v.SetDefault("events.file.deleted", true)
	v.SetDefault("events.file.moved", true)
	v.SetDefault("events.file.swept", false)
}
