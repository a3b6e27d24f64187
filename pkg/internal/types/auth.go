package types

// LoginRequest 管理员登录.
type LoginRequest struct {
	Username string `json:"username" rule:"required"`
	Password string `json:"password" rule:"required"`
}

// LoginResponse 登录成功返回的令牌.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
