// Package cart 购物车：加购、修改数量、优惠券
package cart

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/pricing"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// ErrCartItemNotFound 购物车中没有该商品
var ErrCartItemNotFound = apperrors.New(apperrors.ErrCodeNotFound, "购物车中没有该商品")

// CartResponse 购物车和金额汇总
// 汇总按已应用优惠券的折扣计算（不含积分抵扣）
type CartResponse struct {
	Items         []cart.Item     `json:"items"`
	TotalPrice    int64           `json:"total_price"`
	AppliedCoupon *coupon.Applied `json:"applied_coupon,omitempty"`
	Summary       pricing.Summary `json:"summary"`
}

func newCartResponse(c *cart.Cart) *CartResponse {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return &CartResponse{
		Items:         items,
		TotalPrice:    c.TotalPrice,
		AppliedCoupon: c.AppliedCoupon,
		Summary:       pricing.ComputeSummary(c.TotalPrice, c.Discount()),
	}
}

// GetCartUseCase 查看购物车
type GetCartUseCase struct {
	carts cart.Store
}

func NewGetCartUseCase(carts cart.Store) *GetCartUseCase {
	return &GetCartUseCase{carts: carts}
}

func (uc *GetCartUseCase) Execute(ctx context.Context, userID uint) (*CartResponse, error) {
	c, err := uc.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newCartResponse(c), nil
}

// AddItemUseCase 加入购物车
type AddItemUseCase struct {
	carts    cart.Store
	products inventory.ProductRepository
	logger   *zap.Logger
}

func NewAddItemUseCase(carts cart.Store, products inventory.ProductRepository, logger *zap.Logger) *AddItemUseCase {
	return &AddItemUseCase{carts: carts, products: products, logger: logger}
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	UserID    uint
	ProductID uint
	VariantID uint
	Quantity  int // 小于1按1处理
}

// Execute 加入购物车
//
//  1. 商品必须存在；指定规格时规格必须存在，价格取规格价（为0时取商品价）
//  2. 同商品同规格合并数量，价格刷新为当前价
//
// 加购时不校验库存，下单时再校验
func (uc *AddItemUseCase) Execute(ctx context.Context, req AddItemRequest) (*CartResponse, error) {
	p, err := uc.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	item := cart.Item{
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductType: string(p.Type),
		Price:       p.Price,
		Quantity:    req.Quantity,
	}
	if req.VariantID != 0 {
		v := p.Variant(req.VariantID)
		if v == nil {
			return nil, inventory.ErrVariantNotFound
		}
		item.VariantID = v.ID
		item.VariantName = v.Name
		if v.Price > 0 {
			item.Price = v.Price
		}
	}

	c, err := uc.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	c.AddItem(item)
	if err := uc.carts.Save(ctx, c); err != nil {
		return nil, err
	}

	uc.logger.Debug("加入购物车",
		zap.Uint("user_id", req.UserID),
		zap.Uint("product_id", req.ProductID),
		zap.Uint("variant_id", req.VariantID),
	)
	return newCartResponse(c), nil
}

// UpdateItemUseCase 修改购物车数量，数量为0时移除
type UpdateItemUseCase struct {
	carts cart.Store
}

func NewUpdateItemUseCase(carts cart.Store) *UpdateItemUseCase {
	return &UpdateItemUseCase{carts: carts}
}

// UpdateItemRequest 修改数量请求
type UpdateItemRequest struct {
	UserID    uint
	ProductID uint
	VariantID uint
	Quantity  int
}

func (uc *UpdateItemUseCase) Execute(ctx context.Context, req UpdateItemRequest) (*CartResponse, error) {
	c, err := uc.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !c.UpdateQuantity(req.ProductID, req.VariantID, max(req.Quantity, 0)) {
		return nil, ErrCartItemNotFound
	}
	if err := uc.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return newCartResponse(c), nil
}

// ApplyCouponUseCase 应用优惠券
type ApplyCouponUseCase struct {
	carts   cart.Store
	counter *coupon.Counter
	logger  *zap.Logger
}

func NewApplyCouponUseCase(carts cart.Store, counter *coupon.Counter, logger *zap.Logger) *ApplyCouponUseCase {
	return &ApplyCouponUseCase{carts: carts, counter: counter, logger: logger}
}

// Execute 应用优惠券
// 任何校验失败都不修改购物车，原有的优惠券保持不变
func (uc *ApplyCouponUseCase) Execute(ctx context.Context, userID uint, code string) (*CartResponse, error) {
	c, err := uc.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}

	applied, err := uc.counter.Apply(ctx, code, c.TotalPrice)
	if err != nil {
		return nil, err
	}

	c.AppliedCoupon = applied
	if err := uc.carts.Save(ctx, c); err != nil {
		return nil, err
	}

	uc.logger.Info("优惠券已应用",
		zap.Uint("user_id", userID),
		zap.String("code", applied.Code),
		zap.Int64("discount", applied.Discount),
	)
	return newCartResponse(c), nil
}

// RemoveCouponUseCase 取消已应用的优惠券
type RemoveCouponUseCase struct {
	carts cart.Store
}

func NewRemoveCouponUseCase(carts cart.Store) *RemoveCouponUseCase {
	return &RemoveCouponUseCase{carts: carts}
}

func (uc *RemoveCouponUseCase) Execute(ctx context.Context, userID uint) (*CartResponse, error) {
	c, err := uc.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}
	c.AppliedCoupon = nil
	if err := uc.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return newCartResponse(c), nil
}
