package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/order"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// ItemsFromCart 购物车明细 → 订单明细（价格按加入购物车时的快照）
func ItemsFromCart(c *cart.Cart) ([]order.OrderItem, error) {
	items := make([]order.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		item, err := order.NewItem(it.ProductID, it.ProductName, it.Price, it.Quantity, it.VariantID, it.VariantName)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CheckAvailability 校验购物车中每件商品的当前库存
// 只读校验，不加锁；库存的实际扣减发生在订单完成时
func CheckAvailability(ctx context.Context, products inventory.ProductRepository, c *cart.Cart) error {
	for _, it := range c.Items {
		p, err := products.FindByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				return apperrors.WithCause(inventory.ErrProductNotFound,
					fmt.Errorf("商品《%s》已下架", it.ProductName))
			}
			return err
		}

		available := p.InStock
		if it.VariantID != 0 && p.HasVariants() {
			available = 0
			if v := p.Variant(it.VariantID); v != nil {
				available = v.Stock
			}
		}
		if it.Quantity > available {
			return apperrors.WithCause(inventory.ErrInsufficientStock,
				fmt.Errorf("商品《%s》库存不足，当前库存:%d，需要:%d", it.ProductName, available, it.Quantity))
		}
	}
	return nil
}
