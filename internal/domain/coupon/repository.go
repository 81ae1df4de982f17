package coupon

import "context"

// Repository 优惠券仓储
type Repository interface {
	// FindActiveByCode 按优惠码查找启用中的优惠券
	FindActiveByCode(ctx context.Context, code string) (*Coupon, error)

	FindByID(ctx context.Context, id uint) (*Coupon, error)

	// IncrementUsage time_used = time_used + 1（无条件）
	IncrementUsage(ctx context.Context, id uint) error

	// Create 写入优惠券，优惠码重复时返回ErrCouponCodeDuplicate
	Create(ctx context.Context, c *Coupon) error

	// List 按创建时间倒序分页
	List(ctx context.Context, page, pageSize int) ([]*Coupon, int64, error)

	SetActive(ctx context.Context, id uint, active bool) error

	Delete(ctx context.Context, id uint) error
}
