package dto

// AddCartItemRequest 加入购物车
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required" example:"1"`
	VariantID uint `json:"variant_id" example:"0"`
	Quantity  int  `json:"quantity" binding:"min=0,max=999" example:"2"`
}

// UpdateCartItemRequest 修改数量，0表示移除
type UpdateCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required" example:"1"`
	VariantID uint `json:"variant_id" example:"0"`
	Quantity  int  `json:"quantity" binding:"min=0,max=999" example:"3"`
}

// ApplyCouponRequest 使用优惠券
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required,max=50" example:"GREEN"`
}
