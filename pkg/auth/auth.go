// Package auth 实现管理员登录与 JWT 令牌的签发、校验.
//
// 系统只有一个共享的管理员账号，令牌只携带角色，不区分用户.
//
//	issuer := auth.NewIssuer(cfg.Auth)
//	token, exp, err := issuer.Issue(auth.RoleAdmin)
//
//	claims, err := issuer.Verify(token)
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeisme/papervault/pkg/configs"
)

// RoleAdmin 管理员角色.
const RoleAdmin = "admin"

var (
	// ErrUnauthorized 缺少或格式错误的 Authorization 头.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken 签名、过期或声明校验失败.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials 用户名或密码不匹配.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims JWT 声明.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer 使用 HS256 签发和校验令牌.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer 由认证配置创建 Issuer.
func NewIssuer(cfg configs.AuthConfig) *Issuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = configs.DefaultTokenTTL
	}

	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// WithClock 替换时间源，测试使用.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue 签发携带 role 的令牌，返回令牌与过期时间.
func (i *Issuer) Issue(role string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   role,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, exp, nil
}

// Verify 校验令牌，失败统一返回 ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseBearer 从 Authorization 头取出令牌.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrUnauthorized
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}

	return token, nil
}

// Credentials 配置中的管理员账号.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// CredentialsFrom 从认证配置读取管理员账号.
func CredentialsFrom(cfg configs.AuthConfig) Credentials {
	return Credentials{
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}
}

// Check 常量时间比较用户名，配置了哈希时用 bcrypt 校验密码.
func (c Credentials) Check(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = c.Password != "" &&
			subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	if !userOK || !passOK {
		return ErrInvalidCredentials
	}

	return nil
}

// HashPassword 生成 bcrypt 哈希，用于 admin_password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
