package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User 用户实体（聚合根）
// 1. 密码为bcrypt哈希值，不提供明文相关的方法
// 2. LoyaltyPoints只通过loyalty.Ledger修改（单条SQL加减），实体上不提供修改方法
type User struct {
	ID            uint
	Email         string
	Password      string // bcrypt哈希值
	Nickname      string
	Role          Role
	LoyaltyPoints int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser 创建新顾客（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, nickname string) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateNickname 更新昵称
func (u *User) UpdateNickname(nickname string) {
	u.Nickname = nickname
	u.UpdatedAt = time.Now()
}
