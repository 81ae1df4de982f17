package user

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/user"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// Profile 个人资料，含积分余额及其可抵扣金额
type Profile struct {
	UserInfo
	LoyaltyPoints int64  `json:"loyalty_points"`
	PointsValue   int64  `json:"points_value"` // VND
	CreatedAt     string `json:"created_at"`
}

func newProfile(u *user.User) *Profile {
	return &Profile{
		UserInfo:      newUserInfo(u),
		LoyaltyPoints: u.LoyaltyPoints,
		PointsValue:   u.LoyaltyPoints * loyalty.PointValue,
		CreatedAt:     u.CreatedAt.Format(time.DateTime),
	}
}

// GetProfileUseCase 查看个人资料
type GetProfileUseCase struct {
	userRepo user.Repository
}

func NewGetProfileUseCase(userRepo user.Repository) *GetProfileUseCase {
	return &GetProfileUseCase{userRepo: userRepo}
}

func (uc *GetProfileUseCase) Execute(ctx context.Context, userID uint) (*Profile, error) {
	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newProfile(u), nil
}

// UpdateProfileUseCase 修改昵称
type UpdateProfileUseCase struct {
	userRepo user.Repository
}

func NewUpdateProfileUseCase(userRepo user.Repository) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{userRepo: userRepo}
}

func (uc *UpdateProfileUseCase) Execute(ctx context.Context, userID uint, nickname string) (*Profile, error) {
	nickname = strings.TrimSpace(nickname)
	if n := len([]rune(nickname)); n < 2 || n > 50 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "昵称长度应为2-50个字符")
	}

	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.UpdateNickname(nickname)
	if err := uc.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return newProfile(u), nil
}
