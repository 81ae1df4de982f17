package dto

// CreateCouponRequest 后台创建优惠券
// code留空时自动生成5位优惠码；is_active不传时默认启用
type CreateCouponRequest struct {
	Code          string  `json:"code" binding:"omitempty,max=16" example:"TET26"`
	DiscountType  string  `json:"discount_type" binding:"omitempty,oneof=percentage fixed" example:"percentage"`
	DiscountValue float64 `json:"discount_value" binding:"min=0" example:"10"`
	MaxUsage      int     `json:"max_usage" example:"100"`
	IsActive      *bool   `json:"is_active" example:"true"`
}
