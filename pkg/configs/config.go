// Package configs 管理应用程序配置，包括数据库、对象存储、认证、缓存和事件的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.Server.Port, cfg.S3.Bucket)
//
// 环境变量使用 PAPERVAULT_ 前缀，嵌套键的 "." 替换为 "_"，例如 PAPERVAULT_AUTH_JWT_SECRET.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/papervault/pkg/rule"
)

// AppVersion 应用版本，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "PAPERVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`
		DB             DBConfig             `mapstructure:"db"`
		S3             S3Config             `mapstructure:"s3"`
		KV             KVConfig             `mapstructure:"kv"`
		MQ             MQConfig             `mapstructure:"mq"`
		Events         EventsConfig         `mapstructure:"events"`
		Auth           AuthConfig           `mapstructure:"auth"`
		Upload         UploadConfig         `mapstructure:"upload"`
		Cache          CacheConfig          `mapstructure:"cache"`
		Sweep          SweepConfig          `mapstructure:"sweep"`
		Log            LogConfig            `mapstructure:"log"`
		Metrics        MetricsConfig        `mapstructure:"metrics"`
		Tracing        TracingConfig        `mapstructure:"tracing"`
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	// mu 保护热重载期间的 globalConfig.
	mu sync.RWMutex
)

// envAliases 兼容部署平台常见的环境变量名.
var envAliases = map[string]string{
	"db.dsn":                   "DATABASE_URL",
	"db.password":              "DATABASE_SERVICE_KEY",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.admin_username":      "ADMIN_USERNAME",
	"auth.admin_password":      "ADMIN_PASSWORD",
	"auth.admin_password_hash": "ADMIN_PASSWORD_HASH",
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时仅使用默认值和环境变量.
func InitConfig(path string) error {
	v := viper.New()
	setAllDefaults(v)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml", "env", "dotenv"} {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envAliases {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	mu.Lock()
	appViper = v
	globalConfig = cfg
	mu.Unlock()

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

// Validate 校验带 rule 标签的配置项.
func Validate(cfg *AppConfig) error {
	if err := rule.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	(&ServerConfig{}).setDefaults(v)
	(&DBConfig{}).setDefaults(v)
	(&S3Config{}).setDefaults(v)
	(&KVConfig{}).setDefaults(v)
	(&MQConfig{}).setDefaults(v)
	(&EventsConfig{}).setDefaults(v)
	(&AuthConfig{}).setDefaults(v)
	(&UploadConfig{}).setDefaults(v)
	(&CacheConfig{}).setDefaults(v)
	(&SweepConfig{}).setDefaults(v)
	(&LogConfig{}).setDefaults(v)
	(&MetricsConfig{}).setDefaults(v)
	(&TracingConfig{}).setDefaults(v)
	(&RateLimitConfig{}).setDefaults(v)
	(&CircuitBreakerConfig{}).setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Fprintln(os.Stderr, "config file changed, reloading:", e.Name)

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error reloading config: %v\n", err)

			return
		}

		mu.Lock()
		globalConfig = cfg
		mu.Unlock()
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()

	return &globalConfig
}

// GetViper 返回当前使用的 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
