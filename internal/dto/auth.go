package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求；Role 非空时须与账号角色一致
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"     binding:"omitempty,oneof=Faculty Finance Admin"`
}

// RegisterRequest 管理员创建账号请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Role     string `json:"role"     binding:"required,oneof=Faculty Finance Admin"`
}
