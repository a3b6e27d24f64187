package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultTokenTTL      = time.Hour    // 管理员令牌有效期
	DefaultTokenIssuer   = "papervault" // JWT iss
	DefaultAdminUsername = "admin"
)

// AuthConfig 管理员认证配置，单一共享的管理员账号.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"     rule:"required,min=8"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"      rule:"min=1s"`
	Issuer        string        `mapstructure:"issuer"`
	AdminUsername string        `mapstructure:"admin_username" rule:"required"`
	AdminPassword string        `mapstructure:"admin_password" rule:"required_without=AdminPasswordHash"`
	// AdminPasswordHash bcrypt 哈希，非空时优先于明文密码.
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", DefaultTokenTTL)
	v.SetDefault("auth.issuer", DefaultTokenIssuer)
	v.SetDefault("auth.admin_username", DefaultAdminUsername)
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.admin_password_hash", "")
}
