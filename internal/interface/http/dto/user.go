package dto

// RegisterRequest HTTP层注册请求
// HTTP层的DTO，包含参数验证tag
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"lan@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"Passw0rd"`
	Nickname string `json:"nickname" binding:"required,min=2,max=50" example:"Lan"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"lan@example.com"`
	Password string `json:"password" binding:"required" example:"Passw0rd"`
}

// UpdateProfileRequest 修改个人资料
type UpdateProfileRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=50" example:"Lan Anh"`
}
