package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/coupon"
)

const (
	listPageSize = 20
	maxPageSize  = 100

	// 自动生成的优惠码撞上已有优惠码时重新生成的次数
	generateAttempts = 3
)

// CouponView 后台优惠券
type CouponView struct {
	ID            uint    `json:"id"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
	MaxUsage      int     `json:"max_usage"`
	TimeUsed      int     `json:"time_used"`
	IsActive      bool    `json:"is_active"`
	Exhausted     bool    `json:"exhausted"`
	CreatedAt     string  `json:"created_at"`
}

func NewCouponView(c *coupon.Coupon) *CouponView {
	return &CouponView{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		MaxUsage:      c.MaxUsage,
		TimeUsed:      c.TimeUsed,
		IsActive:      c.IsActive,
		Exhausted:     c.Exhausted(),
		CreatedAt:     c.CreatedAt.Format(time.DateTime),
	}
}

// ListCouponsUseCase 优惠券列表
type ListCouponsUseCase struct {
	repo coupon.Repository
}

func NewListCouponsUseCase(repo coupon.Repository) *ListCouponsUseCase {
	return &ListCouponsUseCase{repo: repo}
}

type ListCouponsRequest struct {
	Page     int
	PageSize int
}

type ListCouponsResponse struct {
	Coupons  []*CouponView `json:"coupons"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// Execute 最新创建的在前
func (uc *ListCouponsUseCase) Execute(ctx context.Context, req ListCouponsRequest) (*ListCouponsResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = listPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	coupons, total, err := uc.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	views := make([]*CouponView, len(coupons))
	for i, c := range coupons {
		views[i] = NewCouponView(c)
	}
	return &ListCouponsResponse{Coupons: views, Total: total, Page: page, PageSize: pageSize}, nil
}

// CreateCouponUseCase 创建优惠券
type CreateCouponUseCase struct {
	repo   coupon.Repository
	logger *zap.Logger
}

func NewCreateCouponUseCase(repo coupon.Repository, logger *zap.Logger) *CreateCouponUseCase {
	return &CreateCouponUseCase{repo: repo, logger: logger}
}

type CreateCouponRequest struct {
	Code          string
	DiscountType  string
	DiscountValue float64
	MaxUsage      int
	IsActive      *bool // 未传时默认启用
	AdminID       uint
}

// Execute 未填优惠码时自动生成，生成的优惠码冲突时重试
func (uc *CreateCouponUseCase) Execute(ctx context.Context, req CreateCouponRequest) (*CouponView, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	attempts := 1
	if strings.TrimSpace(req.Code) == "" {
		attempts = generateAttempts
	}

	var err error
	for range attempts {
		var c *coupon.Coupon
		c, err = coupon.NewCoupon(req.Code, coupon.DiscountType(req.DiscountType), req.DiscountValue, req.MaxUsage, active)
		if err != nil {
			return nil, err
		}
		err = uc.repo.Create(ctx, c)
		if err == nil {
			uc.logger.Info("创建优惠券",
				zap.Uint("coupon_id", c.ID),
				zap.String("code", c.Code),
				zap.Uint("admin_id", req.AdminID),
			)
			return NewCouponView(c), nil
		}
		if !errors.Is(err, coupon.ErrCouponCodeDuplicate) {
			return nil, err
		}
	}
	return nil, err
}

// ToggleCouponUseCase 启用/停用优惠券
type ToggleCouponUseCase struct {
	repo   coupon.Repository
	logger *zap.Logger
}

func NewToggleCouponUseCase(repo coupon.Repository, logger *zap.Logger) *ToggleCouponUseCase {
	return &ToggleCouponUseCase{repo: repo, logger: logger}
}

// Execute 翻转启用状态，返回翻转后的优惠券
func (uc *ToggleCouponUseCase) Execute(ctx context.Context, id, adminID uint) (*CouponView, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.IsActive = !c.IsActive
	if err := uc.repo.SetActive(ctx, id, c.IsActive); err != nil {
		return nil, err
	}

	uc.logger.Info("切换优惠券状态",
		zap.Uint("coupon_id", id),
		zap.Bool("is_active", c.IsActive),
		zap.Uint("admin_id", adminID),
	)
	return NewCouponView(c), nil
}

// DeleteCouponUseCase 删除优惠券
// 已下单的订单保留coupon_id，之后的使用计数会被跳过
type DeleteCouponUseCase struct {
	repo   coupon.Repository
	logger *zap.Logger
}

func NewDeleteCouponUseCase(repo coupon.Repository, logger *zap.Logger) *DeleteCouponUseCase {
	return &DeleteCouponUseCase{repo: repo, logger: logger}
}

func (uc *DeleteCouponUseCase) Execute(ctx context.Context, id, adminID uint) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("删除优惠券", zap.Uint("coupon_id", id), zap.Uint("admin_id", adminID))
	return nil
}
