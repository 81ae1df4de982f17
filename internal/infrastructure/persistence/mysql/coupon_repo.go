package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/plantshop/internal/domain/coupon"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

type couponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) coupon.Repository {
	return &couponRepository{db: db}
}

func (r *couponRepository) FindActiveByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var model CouponModel
	err := dbFrom(ctx, r.db).Where("code = ? AND is_active = ?", code, true).First(&model).Error
	if err != nil {
		return nil, couponErr(err)
	}
	return toCouponEntity(&model), nil
}

func (r *couponRepository) FindByID(ctx context.Context, id uint) (*coupon.Coupon, error) {
	var model CouponModel
	if err := dbFrom(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, couponErr(err)
	}
	return toCouponEntity(&model), nil
}

// IncrementUsage UPDATE coupons SET time_used = time_used + 1 WHERE id = ?
func (r *couponRepository) IncrementUsage(ctx context.Context, id uint) error {
	result := dbFrom(ctx, r.db).Model(&CouponModel{}).Where("id = ?", id).
		UpdateColumn("time_used", gorm.Expr("time_used + 1"))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新优惠券使用次数失败")
	}
	if result.RowsAffected == 0 {
		return coupon.ErrCouponNotFound
	}
	return nil
}

// Create 优惠码唯一性由UNIQUE索引保证
func (r *couponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	model := &CouponModel{
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		MaxUsage:      c.MaxUsage,
		TimeUsed:      c.TimeUsed,
		IsActive:      c.IsActive,
	}
	// is_active有默认值，显式写入false
	if err := dbFrom(ctx, r.db).
		Select("Code", "DiscountType", "DiscountValue", "MaxUsage", "TimeUsed", "IsActive", "CreatedAt", "UpdatedAt").
		Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return coupon.ErrCouponCodeDuplicate
		}
		return apperrors.Wrap(err, "创建优惠券失败")
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *couponRepository) List(ctx context.Context, page, pageSize int) ([]*coupon.Coupon, int64, error) {
	db := dbFrom(ctx, r.db).Model(&CouponModel{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询优惠券失败")
	}

	var models []CouponModel
	if err := db.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询优惠券失败")
	}

	coupons := make([]*coupon.Coupon, len(models))
	for i := range models {
		coupons[i] = toCouponEntity(&models[i])
	}
	return coupons, total, nil
}

func (r *couponRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := dbFrom(ctx, r.db).Model(&CouponModel{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新优惠券失败")
	}
	if result.RowsAffected == 0 {
		return r.existsOrNotFound(ctx, id)
	}
	return nil
}

func (r *couponRepository) Delete(ctx context.Context, id uint) error {
	result := dbFrom(ctx, r.db).Delete(&CouponModel{}, id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "删除优惠券失败")
	}
	if result.RowsAffected == 0 {
		return coupon.ErrCouponNotFound
	}
	return nil
}

// existsOrNotFound MySQL值未变化时RowsAffected为0，需要再确认记录是否存在
func (r *couponRepository) existsOrNotFound(ctx context.Context, id uint) error {
	var count int64
	if err := dbFrom(ctx, r.db).Model(&CouponModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询优惠券失败")
	}
	if count == 0 {
		return coupon.ErrCouponNotFound
	}
	return nil
}

func couponErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return coupon.ErrCouponNotFound
	}
	return apperrors.Wrap(err, "查询优惠券失败")
}

func toCouponEntity(m *CouponModel) *coupon.Coupon {
	return &coupon.Coupon{
		ID:            m.ID,
		Code:          m.Code,
		DiscountType:  coupon.DiscountType(m.DiscountType),
		DiscountValue: m.DiscountValue,
		MaxUsage:      m.MaxUsage,
		TimeUsed:      m.TimeUsed,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
