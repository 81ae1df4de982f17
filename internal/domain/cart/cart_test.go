package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/plantshop/internal/domain/coupon"
)

func TestCart(t *testing.T) {
	c := &Cart{UserID: 1}
	assert.True(t, c.IsEmpty())

	c.AddItem(Item{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 2})
	c.AddItem(Item{ProductID: 2, ProductName: "Chậu gốm", Price: 200000, Quantity: 1})

	t.Run("同商品合并并使用最新价格", func(t *testing.T) {
		c.AddItem(Item{ProductID: 1, Price: 45000, Quantity: 1})
		assert.Len(t, c.Items, 2)
		assert.Equal(t, 3, c.Items[0].Quantity)
		assert.EqualValues(t, 135000, c.Items[0].SubTotal)
		assert.EqualValues(t, 335000, c.TotalPrice)
	})

	t.Run("不同规格分开", func(t *testing.T) {
		c.AddItem(Item{ProductID: 2, VariantID: 7, Price: 250000, Quantity: 1})
		assert.Len(t, c.Items, 3)
	})

	t.Run("数量为0移除", func(t *testing.T) {
		assert.True(t, c.UpdateQuantity(2, 7, 0))
		assert.Len(t, c.Items, 2)
		assert.False(t, c.UpdateQuantity(9, 0, 1))
	})

	t.Run("折扣不超过小计", func(t *testing.T) {
		c.AppliedCoupon = &coupon.Applied{CouponID: 3, Code: "GREEN", Discount: 1_000_000}
		assert.Equal(t, c.TotalPrice, c.Discount())
		assert.EqualValues(t, 3, *c.CouponID())
	})
}
