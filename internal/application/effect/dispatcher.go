// Package effect 执行订单副作用任务
//
// 状态变更与任务在同一事务中写入outbox；提交后Dispatcher立即执行本订单的任务，
// Relay定时重放失败或遗漏的任务。每个任务在独立事务中执行：
// 先在订单EffectSet上做CAS，CAS成功才真正加减库存/积分，二者一起提交或回滚。
package effect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/pkg/metrics"
	"github.com/xiebiao/plantshop/pkg/mq"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

// Result 任务执行结果
type Result string

const (
	ResultApplied Result = "applied" // CAS成功并完成了加减
	ResultNoop    Result = "noop"    // 标记已处于目标状态，无需执行
	ResultSkipped Result = "skipped" // 任务已被其他执行者处理或被抵消
	ResultFailed  Result = "failed"  // 本次执行失败，等待重放
)

// Outcome 单个任务的执行结果
type Outcome struct {
	TaskID uint                   `json:"task_id"`
	Kind   outbox.Kind            `json:"kind"`
	Result Result                 `json:"result"`
	Points int64                  `json:"points,omitempty"`
	Items  []inventory.ItemResult `json:"items,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Dispatcher 副作用执行器
type Dispatcher struct {
	orders      order.Repository
	tasks       outbox.Repository
	txManager   domain.TxManager
	stock       *inventory.Ledger
	loyalty     *loyalty.Ledger
	coupons     *coupon.Counter
	carts       cart.Store
	publisher   mq.EventPublisher
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
}

// NewDispatcher 创建执行器
func NewDispatcher(
	orders order.Repository,
	tasks outbox.Repository,
	txManager domain.TxManager,
	stock *inventory.Ledger,
	loyaltyLedger *loyalty.Ledger,
	coupons *coupon.Counter,
	carts cart.Store,
	publisher mq.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *Dispatcher {
	maxAttempts := cfg.Effect.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{
		orders:      orders,
		tasks:       tasks,
		txManager:   txManager,
		stock:       stock,
		loyalty:     loyaltyLedger,
		coupons:     coupons,
		carts:       carts,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
	}
}

// DispatchOrder 执行订单的全部待执行任务（按入队顺序）
// 单个任务失败不影响后续任务，失败的任务留待Relay重放
func (d *Dispatcher) DispatchOrder(ctx context.Context, orderID uint) []Outcome {
	ctx, span := tracing.StartSpan(ctx, "effect", "DispatchOrder")
	defer span.End()

	tasks, err := d.tasks.PendingByOrder(ctx, orderID)
	if err != nil {
		d.logger.Error("读取副作用任务失败", zap.Uint("order_id", orderID), zap.Error(err))
		return nil
	}

	outcomes := make([]Outcome, 0, len(tasks))
	for _, t := range tasks {
		outcomes = append(outcomes, d.Apply(ctx, t))
	}
	return outcomes
}

// Apply 在独立事务中执行一个任务
func (d *Dispatcher) Apply(ctx context.Context, t *outbox.Task) Outcome {
	out := Outcome{TaskID: t.ID, Kind: t.Kind}

	err := d.txManager.Transaction(ctx, func(txCtx context.Context) error {
		locked, err := d.tasks.LockPending(txCtx, t.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			out.Result = ResultSkipped
			return nil
		}

		o, err := d.orders.FindByID(txCtx, locked.OrderID)
		if err != nil {
			return err
		}
		if err := d.run(txCtx, locked, o, &out); err != nil {
			return err
		}
		return d.tasks.MarkDone(txCtx, locked.ID, d.now())
	})

	if err != nil {
		out.Result = ResultFailed
		out.Error = err.Error()
		out.Items = nil
		d.logger.Warn("副作用任务执行失败",
			zap.Uint("task_id", t.ID),
			zap.Uint("order_id", t.OrderID),
			zap.String("kind", string(t.Kind)),
			zap.Error(err),
		)
		if markErr := d.tasks.MarkAttemptFailed(context.WithoutCancel(ctx), t.ID, err.Error(), d.maxAttempts); markErr != nil {
			d.logger.Error("记录任务失败次数失败", zap.Uint("task_id", t.ID), zap.Error(markErr))
		}
	}

	metrics.RecordEffect(string(t.Kind), string(out.Result))
	return out
}

func (d *Dispatcher) run(ctx context.Context, t *outbox.Task, o *order.Order, out *Outcome) error {
	switch t.Kind {
	case outbox.KindAwardPoints:
		return d.swapThen(ctx, o, order.EffectPointsRewarded, true, out, func() error {
			out.Points = o.RewardPoints()
			return d.loyalty.Credit(ctx, o.UserID, out.Points)
		})

	case outbox.KindRevokePoints:
		return d.swapThen(ctx, o, order.EffectPointsRewarded, false, out, func() error {
			out.Points = o.RewardPoints()
			return d.loyalty.Debit(ctx, o.UserID, out.Points)
		})

	case outbox.KindRedeemPoints:
		return d.swapThen(ctx, o, order.EffectPointsRedeemed, true, out, func() error {
			out.Points = o.RedeemedPoints()
			return d.loyalty.Debit(ctx, o.UserID, out.Points)
		})

	case outbox.KindDeductStock:
		return d.swapThen(ctx, o, order.EffectStockDeducted, true, out, func() error {
			out.Items = d.stock.DeductOrder(ctx, Lines(o))
			return nil
		})

	case outbox.KindRestoreStock:
		return d.swapThen(ctx, o, order.EffectStockDeducted, false, out, func() error {
			out.Items = d.stock.RestoreOrder(ctx, Lines(o))
			return nil
		})

	case outbox.KindClearCart:
		return d.swapThen(ctx, o, order.EffectCartCleared, true, out, func() error {
			return d.carts.Clear(ctx, o.UserID)
		})

	case outbox.KindRedeemCoupon:
		if o.CouponID == nil {
			out.Result = ResultNoop
			return nil
		}
		return d.swapThen(ctx, o, order.EffectCouponRedeemed, true, out, func() error {
			return d.coupons.Redeem(ctx, *o.CouponID)
		})

	case outbox.KindPublishEvent:
		payload, err := t.DecodeEvent()
		if err != nil {
			return fmt.Errorf("解析事件载荷失败: %w", err)
		}
		if err := d.publisher.Publish(ctx, payload.RoutingKey, json.RawMessage(payload.Event)); err != nil {
			return err
		}
		out.Result = ResultApplied
		return nil
	}
	return fmt.Errorf("未知的副作用类型: %s", t.Kind)
}

// swapThen CAS翻转标记，成功后执行apply；标记已处于目标状态时为noop
func (d *Dispatcher) swapThen(ctx context.Context, o *order.Order, e order.Effect, applied bool, out *Outcome, apply func() error) error {
	swapped, err := d.orders.SwapEffect(ctx, o.ID, e, applied)
	if err != nil {
		return err
	}
	if !swapped {
		out.Result = ResultNoop
		return nil
	}
	if err := apply(); err != nil {
		return err
	}
	out.Result = ResultApplied
	return nil
}

// Lines 订单明细 → 库存调整行
func Lines(o *order.Order) []inventory.Line {
	lines := make([]inventory.Line, len(o.Items))
	for i, item := range o.Items {
		lines[i] = inventory.Line{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity}
	}
	return lines
}
