// Package outbox 订单副作用任务
//
// 订单状态变更与副作用任务在同一个事务中写入，提交后由Dispatcher执行，
// 失败的任务由Relay定时重放。每种副作用都以订单上的EffectSet做CAS，
// 因此重复执行是安全的。
package outbox

import (
	"context"
	"encoding/json"
	"time"
)

// Kind 副作用类型
type Kind string

const (
	KindAwardPoints  Kind = "award_points"
	KindRevokePoints Kind = "revoke_points"
	KindDeductStock  Kind = "deduct_stock"
	KindRestoreStock Kind = "restore_stock"
	KindRedeemPoints Kind = "redeem_points"
	KindClearCart    Kind = "clear_cart"
	KindRedeemCoupon Kind = "redeem_coupon"
	KindPublishEvent Kind = "publish_event"
)

// Opposite 互逆的副作用；没有互逆类型时返回""
func (k Kind) Opposite() Kind {
	switch k {
	case KindAwardPoints:
		return KindRevokePoints
	case KindRevokePoints:
		return KindAwardPoints
	case KindDeductStock:
		return KindRestoreStock
	case KindRestoreStock:
		return KindDeductStock
	}
	return ""
}

// Status 任务状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusDone       Status = "done"
	StatusSuperseded Status = "superseded" // 被互逆任务抵消，未执行
	StatusFailed     Status = "failed"     // 超过最大重试次数
)

// Task 副作用任务
type Task struct {
	ID          uint
	OrderID     uint
	Kind        Kind
	Payload     json.RawMessage
	Status      Status
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewTask 创建待执行任务
func NewTask(orderID uint, kind Kind) *Task {
	return &Task{OrderID: orderID, Kind: kind, Status: StatusPending}
}

// EventPayload publish_event任务的载荷
type EventPayload struct {
	RoutingKey string          `json:"routing_key"`
	Event      json.RawMessage `json:"event"`
}

// NewEventTask 创建事件发布任务
func NewEventTask(orderID uint, routingKey string, event any) (*Task, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(EventPayload{RoutingKey: routingKey, Event: body})
	if err != nil {
		return nil, err
	}
	t := NewTask(orderID, KindPublishEvent)
	t.Payload = payload
	return t, nil
}

// DecodeEvent 解析事件载荷
func (t *Task) DecodeEvent() (EventPayload, error) {
	var p EventPayload
	err := json.Unmarshal(t.Payload, &p)
	return p, err
}

// Repository 任务仓储
type Repository interface {
	// Enqueue 写入任务；同一订单上尚未执行的互逆任务被标记为superseded
	Enqueue(ctx context.Context, tasks ...*Task) error

	// PendingByOrder 订单的待执行任务（按ID升序）
	PendingByOrder(ctx context.Context, orderID uint) ([]*Task, error)

	// Pending 所有待执行任务（按ID升序）
	Pending(ctx context.Context, limit int) ([]*Task, error)

	// Supersede 把订单上指定类型的待执行任务标记为superseded
	Supersede(ctx context.Context, orderID uint, kinds ...Kind) error

	// LockPending 加锁读取待执行任务；任务已不是pending时返回nil
	LockPending(ctx context.Context, id uint) (*Task, error)

	MarkDone(ctx context.Context, id uint, at time.Time) error

	// MarkAttemptFailed attempts+1，达到maxAttempts时置为failed
	MarkAttemptFailed(ctx context.Context, id uint, lastErr string, maxAttempts int) error
}
