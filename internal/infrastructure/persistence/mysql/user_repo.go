package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/user"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// userRepository 用户仓储实现（MySQL）
// 同时实现loyalty.BalanceStore：积分余额保存在users.loyalty_points
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// NewBalanceStore 积分余额存储（与用户仓储共用users表）
func NewBalanceStore(db *gorm.DB) loyalty.BalanceStore {
	return &userRepository{db: db}
}

// Create 创建用户
// 邮箱唯一性由UNIQUE索引保证，Duplicate entry转换为ErrEmailDuplicate
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := &UserModel{
		Email:    u.Email,
		Password: u.Password,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	}
	if model.Role == "" {
		model.Role = string(user.RoleCustomer)
	}

	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建用户失败")
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, userErr(err)
	}
	return toUserEntity(&model), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserModel
	if err := dbFrom(ctx, r.db).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, userErr(err)
	}
	return toUserEntity(&model), nil
}

// Update 只更新昵称
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	result := dbFrom(ctx, r.db).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"nickname":   u.Nickname,
		"updated_at": u.UpdatedAt,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新用户失败")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// AddPoints loyalty_points = loyalty_points + ?
func (r *userRepository) AddPoints(ctx context.Context, userID uint, points int64) error {
	return r.updatePoints(ctx, userID, gorm.Expr("loyalty_points + ?", points))
}

// SubtractPointsClamped loyalty_points = GREATEST(loyalty_points - ?, 0)
func (r *userRepository) SubtractPointsClamped(ctx context.Context, userID uint, points int64) error {
	return r.updatePoints(ctx, userID, gorm.Expr("GREATEST(loyalty_points - ?, 0)", points))
}

func (r *userRepository) updatePoints(ctx context.Context, userID uint, expr clause.Expr) error {
	result := dbFrom(ctx, r.db).Model(&UserModel{}).Where("id = ?", userID).UpdateColumn("loyalty_points", expr)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新积分失败")
	}
	if result.RowsAffected == 0 {
		// 值未变化时MySQL也返回0行，这里再确认用户是否存在
		var count int64
		if err := dbFrom(ctx, r.db).Model(&UserModel{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询用户失败")
		}
		if count == 0 {
			return apperrors.ErrUserNotFound
		}
	}
	return nil
}

func (r *userRepository) Balance(ctx context.Context, userID uint) (int64, error) {
	var model UserModel
	if err := dbFrom(ctx, r.db).Select("id, loyalty_points").First(&model, userID).Error; err != nil {
		return 0, userErr(err)
	}
	return model.LoyaltyPoints, nil
}

func userErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.Wrap(err, "查询用户失败")
}

func toUserEntity(m *UserModel) *user.User {
	return &user.User{
		ID:            m.ID,
		Email:         m.Email,
		Password:      m.Password,
		Nickname:      m.Nickname,
		Role:          user.Role(m.Role),
		LoyaltyPoints: m.LoyaltyPoints,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
