package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/domain/pricing"
	"github.com/xiebiao/plantshop/pkg/metrics"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

// CheckoutUseCase 货到付款下单
// 订单金额以购物车为准计算一次；清空购物车和优惠券计数作为副作用任务与订单同一事务写入
type CheckoutUseCase struct {
	orderRepo  order.Repository
	tasks      outbox.Repository
	carts      cart.Store
	txManager  domain.TxManager
	dispatcher *effect.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCheckoutUseCase 创建下单用例
func NewCheckoutUseCase(
	orderRepo order.Repository,
	tasks outbox.Repository,
	carts cart.Store,
	txManager domain.TxManager,
	dispatcher *effect.Dispatcher,
	logger *zap.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		orderRepo:  orderRepo,
		tasks:      tasks,
		carts:      carts,
		txManager:  txManager,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	UserID  uint // 从JWT中提取
	Address order.Address
	Note    string
}

// CheckoutResponse 下单响应
type CheckoutResponse struct {
	OrderID       uint            `json:"order_id"`
	OrderNo       string          `json:"order_no"`
	Summary       pricing.Summary `json:"summary"`
	PointEarned   int64           `json:"point_earned"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     string          `json:"created_at"`
}

// Execute 执行下单
//
//  1. 读取购物车，空车返回ErrCartEmpty
//  2. 校验收货地址
//  3. 按购物车小计和已应用的优惠券计算金额
//  4. 事务内：创建订单 + 写入clear_cart / redeem_coupon / order.created 任务
//  5. 提交后立即执行任务；失败的任务由Relay重放，不影响下单结果
func (uc *CheckoutUseCase) Execute(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "order", "Checkout")
	defer span.End()

	c, err := uc.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}
	if err := req.Address.Validate(); err != nil {
		return nil, err
	}

	items, err := ItemsFromCart(c)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	summary := pricing.ComputeSummary(c.TotalPrice, c.Discount())
	o, err := order.NewOrder(order.GenerateOrderNo(now), order.Draft{
		UserID:        req.UserID,
		Items:         items,
		Summary:       summary,
		Discount:      summary.Discount,
		PointEarned:   pricing.PointsEarnedCOD(summary.Total),
		PaymentMethod: order.PaymentCOD,
		PaymentStatus: order.PaymentUnpaid,
		CouponID:      c.CouponID(),
		Address:       req.Address,
		Note:          req.Note,
	}, now)
	if err != nil {
		return nil, err
	}

	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}

		tasks := []*outbox.Task{outbox.NewTask(o.ID, outbox.KindClearCart)}
		if o.CouponID != nil {
			tasks = append(tasks, outbox.NewTask(o.ID, outbox.KindRedeemCoupon))
		}
		event, err := effect.EventTask(o, effect.RoutingOrderCreated, "", now)
		if err != nil {
			return err
		}
		return uc.tasks.Enqueue(txCtx, append(tasks, event)...)
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	uc.dispatcher.DispatchOrder(ctx, o.ID)
	metrics.IncCounterVec(metrics.OrdersCreatedTotal, map[string]string{"payment_method": string(o.PaymentMethod)})
	uc.logger.Info("订单已创建",
		zap.String("order_no", o.OrderNo),
		zap.Uint("user_id", o.UserID),
		zap.Int64("total", o.TotalPrice),
	)

	return &CheckoutResponse{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		Summary:       summary,
		PointEarned:   o.PointEarned,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt.Format(timeLayout),
	}, nil
}
