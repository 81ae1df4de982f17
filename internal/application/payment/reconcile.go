// Package payment MoMo在线支付：创建支付会话、浏览器回跳、IPN异步回调
package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/pkg/metrics"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

// 回调来源
const (
	SourceIPN    = "ipn"
	SourceReturn = "return"
)

// Callback 一次支付结果通知（IPN或回跳）
type Callback struct {
	Source     string
	OrderNo    string
	ResultCode string
	Message    string
	TransID    string
}

// Succeeded resultCode == "0"
func (c Callback) Succeeded() bool {
	return c.ResultCode == payment.ResultSuccess
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	OrderID          uint             `json:"order_id"`
	OrderNo          string           `json:"order_no"`
	Status           string           `json:"status"`
	PaymentStatus    string           `json:"payment_status"`
	AlreadyProcessed bool             `json:"already_processed"`
	Effects          []effect.Outcome `json:"effects,omitempty"`
}

// Reconciler 把支付结果落到订单上，IPN和回跳共用
//
// 事务内锁定订单并以 payment_status <> 'paid' 为条件更新，重复通知只会有一次生效；
// 支付成功后的积分、购物车、优惠券作为副作用任务与订单更新一起提交。
// 库存不在这里扣减，等管理员把订单置为done时再扣。
type Reconciler struct {
	orderRepo  order.Repository
	tasks      outbox.Repository
	txManager  domain.TxManager
	dispatcher *effect.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewReconciler(
	orderRepo order.Repository,
	tasks outbox.Repository,
	txManager domain.TxManager,
	dispatcher *effect.Dispatcher,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		orderRepo:  orderRepo,
		tasks:      tasks,
		txManager:  txManager,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Reconcile 处理一次支付结果
// 已支付的订单（或已记录失败的订单再次收到失败通知）返回AlreadyProcessed=true，不产生任何副作用
func (r *Reconciler) Reconcile(ctx context.Context, cb Callback) (*ReconcileResult, error) {
	ctx, span := tracing.StartSpan(ctx, "payment", "Reconcile")
	defer span.End()

	if cb.OrderNo == "" {
		return nil, order.ErrOrderNotFound
	}

	var result *ReconcileResult
	err := r.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := r.orderRepo.LockByOrderNo(txCtx, cb.OrderNo)
		if err != nil {
			return err
		}
		if o.PaymentMethod != order.PaymentMomo {
			return payment.ErrNotOnlinePayment
		}

		result = &ReconcileResult{OrderID: o.ID, OrderNo: o.OrderNo}
		if o.PaymentStatus == order.PaymentPaid || (!cb.Succeeded() && o.PaymentStatus == order.PaymentFailed) {
			result.AlreadyProcessed = true
			result.Status, result.PaymentStatus = string(o.Status), string(o.PaymentStatus)
			return nil
		}

		from := o.Status
		now := r.now()
		var tasks []*outbox.Task
		routingKey := effect.RoutingOrderPaymentFailed

		if cb.Succeeded() {
			o.MarkPaid(cb.TransID, now)
			routingKey = effect.RoutingOrderPaid
			// 超时取消后才到账的订单只记录支付结果，不发积分也不清购物车
			if o.Status != order.StatusCanceled {
				tasks = append(tasks,
					outbox.NewTask(o.ID, outbox.KindAwardPoints),
					outbox.NewTask(o.ID, outbox.KindRedeemPoints),
					outbox.NewTask(o.ID, outbox.KindClearCart),
				)
				if o.CouponID != nil {
					tasks = append(tasks, outbox.NewTask(o.ID, outbox.KindRedeemCoupon))
				}
			}
		} else {
			o.MarkPaymentFailed(failureMessage(cb), now)
		}

		ok, err := r.orderRepo.UpdateIfUnpaid(txCtx, o)
		if err != nil {
			return err
		}
		if !ok {
			result.AlreadyProcessed = true
			result.Status, result.PaymentStatus = string(from), string(order.PaymentPaid)
			return nil
		}

		event, err := effect.EventTask(o, routingKey, from, now)
		if err != nil {
			return err
		}
		result.Status, result.PaymentStatus = string(o.Status), string(o.PaymentStatus)
		return r.tasks.Enqueue(txCtx, append(tasks, event)...)
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	switch {
	case result.AlreadyProcessed:
		metrics.RecordPaymentCallback(cb.Source, "duplicate")
		r.logger.Info("支付结果已处理，忽略重复通知",
			zap.String("source", cb.Source),
			zap.String("order_no", result.OrderNo),
		)
		return result, nil
	case cb.Succeeded():
		metrics.RecordPaymentCallback(cb.Source, "paid")
	default:
		metrics.RecordPaymentCallback(cb.Source, "failed")
	}

	result.Effects = r.dispatcher.DispatchOrder(ctx, result.OrderID)
	r.logger.Info("支付结果已入账",
		zap.String("source", cb.Source),
		zap.String("order_no", result.OrderNo),
		zap.String("result_code", cb.ResultCode),
		zap.String("trans_id", cb.TransID),
		zap.String("payment_status", result.PaymentStatus),
	)
	return result, nil
}

func failureMessage(cb Callback) string {
	if cb.Message != "" {
		return cb.Message
	}
	return fmt.Sprintf("resultCode: %s", cb.ResultCode)
}
