package order

import (
	"strings"
	"time"

	"github.com/xiebiao/plantshop/internal/domain/pricing"
)

const defaultCancelNote = "订单已取消"

// Order 订单聚合根
// 金额在创建时由pricing计算一次，此后不再重算
type Order struct {
	ID      uint
	OrderNo string // 业务单号，同时作为MoMo的orderId
	UserID  uint

	Items []OrderItem

	Subtotal    int64
	Discount    int64 // 优惠券折扣
	Tax         int64
	ShippingFee int64
	PointUsed   int64 // 积分抵扣金额（VND），1积分 = 1000 VND
	TotalPrice  int64
	PointEarned int64

	Status        Status
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	StatusHistory []HistoryEntry
	Effects       EffectSet

	CouponID     *uint
	Note         string
	Address      Address
	MomoTransID  string
	CancelReason string
	CanceledAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem 订单明细（价格为下单时快照）
type OrderItem struct {
	ProductID   uint
	ProductName string
	Price       int64
	Quantity    int
	SubTotal    int64
	VariantID   uint   // 0 表示无规格
	VariantName string // 规格快照
}

// HistoryEntry 状态历史（只追加）
type HistoryEntry struct {
	Status    Status
	UpdatedAt time.Time
	Note      string
}

// Address 收货地址
type Address struct {
	Number   string
	Street   string
	District string
	City     string
}

// Validate 街道、区、城市必填，门牌号可为空
func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.District) == "" || strings.TrimSpace(a.City) == "" {
		return ErrAddressRequired
	}
	return nil
}

// String 单行地址
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Number, a.Street, a.District, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// NewItem 创建订单明细并计算小计
func NewItem(productID uint, name string, price int64, quantity int, variantID uint, variantName string) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}
	return OrderItem{
		ProductID:   productID,
		ProductName: name,
		Price:       price,
		Quantity:    quantity,
		SubTotal:    price * int64(quantity),
		VariantID:   variantID,
		VariantName: variantName,
	}, nil
}

// Draft 下单参数
type Draft struct {
	UserID        uint
	Items         []OrderItem
	Summary       pricing.Summary
	Discount      int64 // 优惠券折扣（不含积分抵扣）
	PointUsed     int64
	PointEarned   int64
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	CouponID      *uint
	Address       Address
	Note          string
}

// NewOrder 创建pending订单，写入第一条状态历史
func NewOrder(orderNo string, d Draft, now time.Time) (*Order, error) {
	if len(d.Items) == 0 {
		return nil, ErrInvalidOrderItems
	}
	for _, item := range d.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	return &Order{
		OrderNo:       orderNo,
		UserID:        d.UserID,
		Items:         d.Items,
		Subtotal:      d.Summary.Subtotal,
		Discount:      d.Discount,
		Tax:           d.Summary.Tax,
		ShippingFee:   d.Summary.ShippingFee,
		PointUsed:     d.PointUsed,
		TotalPrice:    d.Summary.Total,
		PointEarned:   d.PointEarned,
		Status:        StatusPending,
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: d.PaymentStatus,
		StatusHistory: []HistoryEntry{{Status: StatusPending, UpdatedAt: now, Note: "订单已创建"}},
		CouponID:      d.CouponID,
		Note:          d.Note,
		Address:       d.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ChangeStatus 管理员状态流转
// 同状态返回 changed=false 且不追加历史；非法边返回ErrInvalidStatusTransition且不修改订单
func (o *Order) ChangeStatus(target Status, note string, now time.Time) (changed bool, err error) {
	if target == o.Status {
		return false, nil
	}
	if !CanTransition(o.Status, target) {
		return false, ErrInvalidStatusTransition
	}

	if target == StatusCanceled && note == "" {
		note = o.CancelReason
		if note == "" {
			note = defaultCancelNote
		}
	}
	if target == StatusCanceled && o.CanceledAt == nil {
		o.CanceledAt = &now
		if o.CancelReason == "" {
			o.CancelReason = note
		}
	}

	o.appendHistory(target, note, now)
	return true, nil
}

// Cancel 顾客取消：仅pending/preparing可取消
// PointsRewarded被无条件清除，不回退余额
func (o *Order) Cancel(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrCancelReasonRequired
	}
	if o.Status != StatusPending && o.Status != StatusPreparing {
		return ErrCannotCancel
	}

	o.CancelReason = reason
	o.CanceledAt = &now
	o.Effects = o.Effects.Without(EffectPointsRewarded)
	o.appendHistory(StatusCanceled, reason, now)
	return nil
}

// MarkPaid 在线支付成功：payment=paid，pending订单进入preparing
// 返回true表示状态发生了流转；已取消的订单只记录支付结果，不恢复
func (o *Order) MarkPaid(transID string, now time.Time) bool {
	o.PaymentStatus = PaymentPaid
	if transID != "" {
		o.MomoTransID = transID
	}
	o.UpdatedAt = now
	if o.Status != StatusPending {
		return false
	}
	o.appendHistory(StatusPreparing, "MoMo 支付成功", now)
	return true
}

// MarkPaymentFailed 在线支付失败：payment=failed，可取消的订单转为canceled
func (o *Order) MarkPaymentFailed(message string, now time.Time) bool {
	reason := "MoMo 支付失败"
	if message != "" {
		reason = reason + ": " + message
	}
	o.PaymentStatus = PaymentFailed
	o.UpdatedAt = now
	if o.Status != StatusPending && o.Status != StatusPreparing {
		return false
	}
	o.CancelReason = reason
	o.CanceledAt = &now
	o.appendHistory(StatusCanceled, reason, now)
	return true
}

// ExpirePayment 在线支付超时：payment=canceled，status=canceled
func (o *Order) ExpirePayment(reason string, now time.Time) {
	o.PaymentStatus = PaymentCanceled
	o.CancelReason = reason
	o.CanceledAt = &now
	o.appendHistory(StatusCanceled, reason, now)
}

// AwaitingPayment 在线支付订单尚未完成支付
func (o *Order) AwaitingPayment() bool {
	return o.PaymentMethod == PaymentMomo &&
		o.Status == StatusPending &&
		(o.PaymentStatus == PaymentUnpaid || o.PaymentStatus == PaymentPending)
}

func (o *Order) appendHistory(status Status, note string, now time.Time) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, HistoryEntry{Status: status, UpdatedAt: now, Note: note})
	o.UpdatedAt = now
}

// RewardPoints 本单应发放的积分
// 下单时记录了PointEarned则使用它，否则按 floor(TotalPrice/10000)
func (o *Order) RewardPoints() int64 {
	if o.PointEarned > 0 {
		return o.PointEarned
	}
	return pricing.PointsEarnedCOD(o.TotalPrice)
}

// RedeemedPoints 下单时抵扣的积分数
func (o *Order) RedeemedPoints() int64 {
	return o.PointUsed / 1000
}

// StockDeducted 库存是否已扣减（库存副作用的唯一依据）
func (o *Order) StockDeducted() bool {
	return o.Effects.Has(EffectStockDeducted)
}

// PointRewarded 积分是否已发放
func (o *Order) PointRewarded() bool {
	return o.Effects.Has(EffectPointsRewarded)
}

// IsOwnedBy 是否属于该用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// CrossesDone 判断流转是否进入或离开done
func CrossesDone(from, to Status) (entering, leaving bool) {
	return from != StatusDone && to == StatusDone, from == StatusDone && to != StatusDone
}
