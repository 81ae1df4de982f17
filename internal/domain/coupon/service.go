package coupon

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Counter 优惠券使用计数
// 只增不减：订单取消不会返还使用次数
type Counter struct {
	repo   Repository
	logger *zap.Logger
}

func NewCounter(repo Repository, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{repo: repo, logger: logger}
}

// Redeem 使用次数+1
func (c *Counter) Redeem(ctx context.Context, couponID uint) error {
	if couponID == 0 {
		return nil
	}
	if err := c.repo.IncrementUsage(ctx, couponID); err != nil {
		// 优惠券已被后台删除，订单上的引用保留，不再计数
		if errors.Is(err, ErrCouponNotFound) {
			c.logger.Warn("优惠券已删除，跳过计数", zap.Uint("coupon_id", couponID))
			return nil
		}
		return err
	}
	c.logger.Info("优惠券已使用", zap.Uint("coupon_id", couponID))
	return nil
}

// Apply 校验优惠码并计算折扣
func (c *Counter) Apply(ctx context.Context, code string, subtotal int64) (*Applied, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	cp, err := c.repo.FindActiveByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if err := cp.CheckApplicable(); err != nil {
		return nil, err
	}

	return &Applied{
		CouponID: cp.ID,
		Code:     cp.Code,
		Discount: cp.Discount(subtotal),
	}, nil
}
