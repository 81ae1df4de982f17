// Package cart 购物车
//
// 购物车是下单的数据来源，存放在Redis中（整车一个JSON文档）。
// 已应用的优惠券快照与购物车一起保存，下单后清空。
package cart

import (
	"context"

	"github.com/xiebiao/plantshop/internal/domain/coupon"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

var ErrCartEmpty = apperrors.New(apperrors.ErrCodeCartEmpty, "购物车为空")

// Item 购物车明细
type Item struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductType string `json:"product_type,omitempty"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	SubTotal    int64  `json:"sub_total"`
	VariantID   uint   `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
}

// Cart 购物车
type Cart struct {
	UserID        uint            `json:"user_id"`
	Items         []Item          `json:"items"`
	TotalPrice    int64           `json:"total_price"`
	AppliedCoupon *coupon.Applied `json:"applied_coupon,omitempty"`
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AddItem 加入商品；同商品同规格合并数量并以最新价格重算小计
func (c *Cart) AddItem(item Item) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.Items {
		existing := &c.Items[i]
		if existing.ProductID == item.ProductID && existing.VariantID == item.VariantID {
			existing.Quantity += item.Quantity
			existing.Price = item.Price
			existing.SubTotal = existing.Price * int64(existing.Quantity)
			c.recalc()
			return
		}
	}
	item.SubTotal = item.Price * int64(item.Quantity)
	c.Items = append(c.Items, item)
	c.recalc()
}

// UpdateQuantity 修改数量，quantity<=0时移除；返回false表示明细不存在
func (c *Cart) UpdateQuantity(productID, variantID uint, quantity int) bool {
	for i := range c.Items {
		it := &c.Items[i]
		if it.ProductID != productID || it.VariantID != variantID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			it.Quantity = quantity
			it.SubTotal = it.Price * int64(quantity)
		}
		c.recalc()
		return true
	}
	return false
}

// Discount 已应用优惠券的折扣（不超过当前小计）
func (c *Cart) Discount() int64 {
	if c.AppliedCoupon == nil {
		return 0
	}
	return min(c.AppliedCoupon.Discount, c.TotalPrice)
}

// CouponID 已应用优惠券的ID
func (c *Cart) CouponID() *uint {
	if c.AppliedCoupon == nil || c.AppliedCoupon.CouponID == 0 {
		return nil
	}
	id := c.AppliedCoupon.CouponID
	return &id
}

func (c *Cart) recalc() {
	var total int64
	for _, it := range c.Items {
		total += it.SubTotal
	}
	c.TotalPrice = total
}

// Store 购物车存储
type Store interface {
	// Get 读取购物车，不存在时返回空购物车
	Get(ctx context.Context, userID uint) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Clear 清空购物车（含已应用的优惠券）
	Clear(ctx context.Context, userID uint) error
}
