// Package pricing 订单金额计算（纯函数，金额单位：越南盾VND，整数）
package pricing

import "math"

const (
	// TaxRate 增值税率
	TaxRate = 0.10
	// ShippingFlat 未达包邮门槛时的固定运费
	ShippingFlat int64 = 30000
	// FreeShippingThreshold 应税金额达到该值免运费
	FreeShippingThreshold int64 = 500000
)

// Summary 订单金额汇总
type Summary struct {
	Subtotal    int64 `json:"subtotal"`
	Discount    int64 `json:"discount"`
	Taxable     int64 `json:"taxable"`
	Tax         int64 `json:"tax"`
	ShippingFee int64 `json:"shipping_fee"`
	Total       int64 `json:"total"`
}

// ComputeSummary 计算订单金额
//
//	subtotal 钳制到 >= 0，discount 钳制到 [0, subtotal]
//	taxable  = subtotal - discount
//	tax      = floor(taxable * 10%)
//	shipping = taxable >= 500000 ? 0 : 30000
//	total    = taxable + tax + shipping
func ComputeSummary(subtotal, discount int64) Summary {
	if subtotal < 0 {
		subtotal = 0
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	taxable := subtotal - discount
	tax := int64(math.Floor(float64(taxable) * TaxRate))

	shipping := ShippingFlat
	if taxable >= FreeShippingThreshold {
		shipping = 0
	}

	return Summary{
		Subtotal:    subtotal,
		Discount:    discount,
		Taxable:     taxable,
		Tax:         tax,
		ShippingFee: shipping,
		Total:       taxable + tax + shipping,
	}
}

// PointsEarnedOnline 在线支付订单的积分：floor(total*10%/1000)
func PointsEarnedOnline(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Floor(float64(total) * 0.10 / 1000))
}

// PointsEarnedCOD 货到付款订单的积分：floor(total/10000)
func PointsEarnedCOD(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return total / 10000
}
