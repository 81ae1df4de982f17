package dto

import "github.com/xiebiao/plantshop/internal/domain/order"

// AddressRequest 收货地址
// 街道、区、城市在领域层校验（MoMo支付允许整体为空）
type AddressRequest struct {
	Number   string `json:"number" binding:"max=20" example:"12"`
	Street   string `json:"street" binding:"max=200" example:"Nguyễn Huệ"`
	District string `json:"district" binding:"max=100" example:"Quận 1"`
	City     string `json:"city" binding:"max=100" example:"TP. Hồ Chí Minh"`
}

// ToAddress 转换为领域值对象
func (a AddressRequest) ToAddress() order.Address {
	return order.Address{
		Number:   a.Number,
		Street:   a.Street,
		District: a.District,
		City:     a.City,
	}
}

// CheckoutRequest 货到付款下单
type CheckoutRequest struct {
	Address AddressRequest `json:"address" binding:"required"`
	Note    string         `json:"note" binding:"max=500" example:"Giao giờ hành chính"`
}

// PageQuery 分页参数
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"10"`
}

// ListOrdersQuery 后台订单筛选
type ListOrdersQuery struct {
	PageQuery
	Status        string `form:"status" example:"pending"`
	PaymentMethod string `form:"payment_method" example:"momo"`
	Keyword       string `form:"keyword" binding:"max=100"`
}

// CancelOrderRequest 取消订单，reason必填
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500" example:"Đặt nhầm sản phẩm"`
}

// SetStatusRequest 后台修改订单状态
type SetStatusRequest struct {
	Status string `json:"status" binding:"required" example:"done"`
	Note   string `json:"note" binding:"max=500"`
}
