package order

import (
	"github.com/xiebiao/plantshop/internal/domain/order"
)

const timeLayout = "2006-01-02 15:04:05"

// OrderView 订单详情/列表项
type OrderView struct {
	ID            uint          `json:"id"`
	OrderNo       string        `json:"order_no"`
	UserID        uint          `json:"user_id"`
	Items         []ItemView    `json:"items"`
	Subtotal      int64         `json:"subtotal"`
	Discount      int64         `json:"discount"`
	Tax           int64         `json:"tax"`
	ShippingFee   int64         `json:"shipping_fee"`
	PointUsed     int64         `json:"point_used"`
	TotalPrice    int64         `json:"total_price"`
	PointEarned   int64         `json:"point_earned"`
	Status        string        `json:"status"`
	StatusLabel   string        `json:"status_label"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus string        `json:"payment_status"`
	StatusHistory []HistoryView `json:"status_history,omitempty"`
	Effects       []string      `json:"effects"`
	Address       string        `json:"address"`
	Note          string        `json:"note,omitempty"`
	CancelReason  string        `json:"cancel_reason,omitempty"`
	CreatedAt     string        `json:"created_at"`
}

type ItemView struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	VariantID   uint   `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	SubTotal    int64  `json:"sub_total"`
}

type HistoryView struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// NewOrderView 领域对象 → 视图；withHistory控制是否输出状态历史（列表不输出）
func NewOrderView(o *order.Order, withHistory bool) OrderView {
	v := OrderView{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		UserID:        o.UserID,
		Items:         make([]ItemView, len(o.Items)),
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Tax:           o.Tax,
		ShippingFee:   o.ShippingFee,
		PointUsed:     o.PointUsed,
		TotalPrice:    o.TotalPrice,
		PointEarned:   o.PointEarned,
		Status:        string(o.Status),
		StatusLabel:   o.Status.Label(),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Effects:       o.Effects.Names(),
		Address:       o.Address.String(),
		Note:          o.Note,
		CancelReason:  o.CancelReason,
		CreatedAt:     o.CreatedAt.Format(timeLayout),
	}
	for i, it := range o.Items {
		v.Items[i] = ItemView{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			VariantID:   it.VariantID,
			VariantName: it.VariantName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			SubTotal:    it.SubTotal,
		}
	}
	if withHistory {
		v.StatusHistory = make([]HistoryView, len(o.StatusHistory))
		for i, h := range o.StatusHistory {
			v.StatusHistory[i] = HistoryView{Status: string(h.Status), Note: h.Note, UpdatedAt: h.UpdatedAt.Format(timeLayout)}
		}
	}
	return v
}
