package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/pkg/metrics"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

// SetStatusUseCase 管理员修改订单状态
type SetStatusUseCase struct {
	orderRepo  order.Repository
	tasks      outbox.Repository
	txManager  domain.TxManager
	dispatcher *effect.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSetStatusUseCase 创建用例
func NewSetStatusUseCase(
	orderRepo order.Repository,
	tasks outbox.Repository,
	txManager domain.TxManager,
	dispatcher *effect.Dispatcher,
	logger *zap.Logger,
) *SetStatusUseCase {
	return &SetStatusUseCase{
		orderRepo:  orderRepo,
		tasks:      tasks,
		txManager:  txManager,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// SetStatusRequest 状态修改请求
type SetStatusRequest struct {
	OrderID uint
	Status  string // 原始输入，先做白名单校验
	ActorID uint   // 操作的管理员
	Note    string
}

// SetStatusResponse 状态修改结果
type SetStatusResponse struct {
	OrderID uint             `json:"order_id"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Changed bool             `json:"changed"`
	Effects []effect.Outcome `json:"effects"`
}

// Execute 执行状态修改
//
// 事务内：锁定订单 → 校验流转边 → 追加历史 → 保存 → 写入副作用任务
//   - 进入done：award_points + deduct_stock
//   - 离开done：revoke_points + restore_stock
//   - 状态变化：publish_event(order.status_changed)
//
// 同一订单上未执行的互逆任务在入队时被抵消（done→preparing→done连续操作只保留最后一次）
func (uc *SetStatusUseCase) Execute(ctx context.Context, req SetStatusRequest) (*SetStatusResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "order", "SetStatus")
	defer span.End()

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	resp := &SetStatusResponse{OrderID: req.OrderID, To: string(target), Effects: []effect.Outcome{}}
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}

		from := o.Status
		resp.From = string(from)

		now := uc.now()
		changed, err := o.ChangeStatus(target, req.Note, now)
		if err != nil || !changed {
			return err
		}
		resp.Changed = true

		if err := uc.orderRepo.Update(txCtx, o); err != nil {
			return err
		}

		var tasks []*outbox.Task
		entering, leaving := order.CrossesDone(from, target)
		switch {
		case entering:
			tasks = append(tasks,
				outbox.NewTask(o.ID, outbox.KindAwardPoints),
				outbox.NewTask(o.ID, outbox.KindDeductStock),
			)
		case leaving:
			tasks = append(tasks,
				outbox.NewTask(o.ID, outbox.KindRevokePoints),
				outbox.NewTask(o.ID, outbox.KindRestoreStock),
			)
		}

		event, err := effect.EventTask(o, effect.RoutingOrderStatusChanged, from, now)
		if err != nil {
			return err
		}
		return uc.tasks.Enqueue(txCtx, append(tasks, event)...)
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if !resp.Changed {
		return resp, nil
	}

	resp.Effects = append(resp.Effects, uc.dispatcher.DispatchOrder(ctx, req.OrderID)...)
	metrics.RecordTransition(resp.From, resp.To)
	uc.logger.Info("订单状态已修改",
		zap.Uint("order_id", req.OrderID),
		zap.String("from", resp.From),
		zap.String("to", resp.To),
		zap.Uint("actor_id", req.ActorID),
	)
	return resp, nil
}
