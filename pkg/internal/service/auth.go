package service

import (
	"context"
	"strings"

	"github.com/yeisme/papervault/pkg/auth"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/types"
)

// AuthService 管理员登录.
type AuthService struct {
	issuer *auth.Issuer
	creds  auth.Credentials
}

// NewAuthService 由认证配置创建登录服务.
func NewAuthService(cfg configs.AuthConfig) *AuthService {
	return &AuthService{
		issuer: auth.NewIssuer(cfg),
		creds:  auth.CredentialsFrom(cfg),
	}
}

// Issuer 供中间件校验令牌.
func (s *AuthService) Issuer() *auth.Issuer {
	return s.issuer
}

// Login 校验账号并签发管理员令牌.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	l := logger(ctx, "auth")

	if err := s.creds.Check(strings.TrimSpace(req.Username), req.Password); err != nil {
		l.Warn().Str("username", req.Username).Msg("admin login failed")
		return nil, err
	}

	token, exp, err := s.issuer.Issue(auth.RoleAdmin)
	if err != nil {
		return nil, err
	}

	l.Info().Time("expires_at", exp).Msg("admin logged in")

	return &types.LoginResponse{Token: token, ExpiresAt: exp.Unix()}, nil
}
