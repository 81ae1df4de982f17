package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 所有方法都从ctx中获取事务（由TxManager注入）
type Repository interface {
	// Create 创建订单，回填ID
	Create(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id uint) (*Order, error)

	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// LockByID 加行锁读取（SELECT ... FOR UPDATE），必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Order, error)

	// LockByOrderNo 同LockByID，按订单号
	LockByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// Update 保存状态、支付状态、状态历史、取消信息、交易号
	// 不写Effects（Effects只能通过SwapEffect修改）
	Update(ctx context.Context, order *Order) error

	// UpdateIfUnpaid 与Update相同，但附加条件 payment_status <> 'paid'
	// 返回false表示订单已被其他请求标记为已支付
	UpdateIfUnpaid(ctx context.Context, order *Order) (bool, error)

	// SwapEffect 原子翻转副作用标记
	// applied=true：仅当标记未设置时设置；applied=false：仅当标记已设置时清除
	// 返回true表示本次调用完成了翻转
	SwapEffect(ctx context.Context, id uint, effect Effect, applied bool) (bool, error)

	// ListByUserID 用户订单列表（按创建时间倒序）
	ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*Order, int64, error)

	// List 后台订单列表
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)

	// FindAwaitingPayment 创建时间早于before、仍在等待在线支付的订单
	FindAwaitingPayment(ctx context.Context, before time.Time, limit int) ([]*Order, error)

	// Stats 统计since之后创建的订单
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

// ListParams 后台订单列表查询参数
type ListParams struct {
	Page          int
	PageSize      int
	Status        Status        // 为空表示全部
	PaymentMethod PaymentMethod // 为空表示全部
	Keyword       string        // 按订单号模糊匹配
}

// Stats 仪表盘订单统计
type Stats struct {
	TotalOrders   int64
	CountByStatus map[Status]int64
	Revenue       int64 // done订单的TotalPrice之和
	PaidOnline    int64 // 已完成在线支付的订单数
}
