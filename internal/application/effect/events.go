package effect

import (
	"time"

	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
)

// 订单事件路由键（Topic Exchange）
const (
	RoutingOrderCreated       = "order.created"
	RoutingOrderStatusChanged = "order.status_changed"
	RoutingOrderPaid          = "order.paid"
	RoutingOrderPaymentFailed = "order.payment_failed"
)

// OrderRoutingKeys 订单相关的全部路由键（缓存失效消费者按它绑定）
var OrderRoutingKeys = []string{
	RoutingOrderCreated,
	RoutingOrderStatusChanged,
	RoutingOrderPaid,
	RoutingOrderPaymentFailed,
}

// OrderEvent 订单事件消息体
type OrderEvent struct {
	OrderID       uint      `json:"order_id"`
	OrderNo       string    `json:"order_no"`
	UserID        uint      `json:"user_id"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to"`
	PaymentStatus string    `json:"payment_status"`
	TotalPrice    int64     `json:"total_price"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewOrderEvent 根据订单当前状态构造事件
func NewOrderEvent(o *order.Order, from order.Status, now time.Time) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		UserID:        o.UserID,
		From:          string(from),
		To:            string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalPrice:    o.TotalPrice,
		OccurredAt:    now,
	}
}

// EventTask 订单事件的publish_event任务
func EventTask(o *order.Order, routingKey string, from order.Status, now time.Time) (*outbox.Task, error) {
	return outbox.NewEventTask(o.ID, routingKey, NewOrderEvent(o, from, now))
}
