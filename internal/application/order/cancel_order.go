package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
)

// CancelOrderUseCase 顾客取消订单
type CancelOrderUseCase struct {
	orderRepo  order.Repository
	tasks      outbox.Repository
	txManager  domain.TxManager
	dispatcher *effect.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewCancelOrderUseCase(
	orderRepo order.Repository,
	tasks outbox.Repository,
	txManager domain.TxManager,
	dispatcher *effect.Dispatcher,
	logger *zap.Logger,
) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		orderRepo:  orderRepo,
		tasks:      tasks,
		txManager:  txManager,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

type CancelOrderRequest struct {
	OrderID uint
	UserID  uint
	Reason  string
}

type CancelOrderResponse struct {
	OrderID    uint   `json:"order_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	CanceledAt string `json:"canceled_at"`
}

// Execute 取消订单
// 不属于该用户的订单按不存在处理；积分发放标记和待执行的发放任务被清除，但不回退余额
func (uc *CancelOrderUseCase) Execute(ctx context.Context, req CancelOrderRequest) (*CancelOrderResponse, error) {
	var canceled *order.Order
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if !o.IsOwnedBy(req.UserID) {
			return order.ErrOrderNotFound
		}

		from := o.Status
		now := uc.now()
		if err := o.Cancel(req.Reason, now); err != nil {
			return err
		}
		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}
		if _, err := uc.orderRepo.SwapEffect(txCtx, o.ID, order.EffectPointsRewarded, false); err != nil {
			return err
		}
		// 尚未执行的积分发放随取消一起作废，避免重放时给已取消订单加分
		if err := uc.tasks.Supersede(txCtx, o.ID, outbox.KindAwardPoints); err != nil {
			return err
		}

		event, err := effect.EventTask(o, effect.RoutingOrderStatusChanged, from, now)
		if err != nil {
			return err
		}
		canceled = o
		return uc.tasks.Enqueue(txCtx, event)
	})
	if err != nil {
		return nil, err
	}

	uc.dispatcher.DispatchOrder(ctx, canceled.ID)
	uc.logger.Info("顾客取消订单",
		zap.String("order_no", canceled.OrderNo),
		zap.Uint("user_id", req.UserID),
		zap.String("reason", canceled.CancelReason),
	)

	return &CancelOrderResponse{
		OrderID:    canceled.ID,
		Status:     string(canceled.Status),
		Reason:     canceled.CancelReason,
		CanceledAt: canceled.CanceledAt.Format(timeLayout),
	}, nil
}
