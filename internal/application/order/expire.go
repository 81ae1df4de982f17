package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/pkg/metrics"
)

const (
	expireReason    = "支付超时自动取消"
	expireBatchSize = 100
)

// ExpireStalePaymentsUseCase 取消长时间未完成支付的MoMo订单
type ExpireStalePaymentsUseCase struct {
	orderRepo   order.Repository
	tasks       outbox.Repository
	txManager   domain.TxManager
	dispatcher  *effect.Dispatcher
	expireAfter time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewExpireStalePaymentsUseCase(
	orderRepo order.Repository,
	tasks outbox.Repository,
	txManager domain.TxManager,
	dispatcher *effect.Dispatcher,
	cfg *config.Config,
	logger *zap.Logger,
) *ExpireStalePaymentsUseCase {
	return &ExpireStalePaymentsUseCase{
		orderRepo:   orderRepo,
		tasks:       tasks,
		txManager:   txManager,
		dispatcher:  dispatcher,
		expireAfter: cfg.Payment.ExpireAfter,
		logger:      logger,
		now:         time.Now,
	}
}

type ExpireResponse struct {
	Expired  []string `json:"expired"` // 被取消的订单号
	Checked  int      `json:"checked"`
	Deadline string   `json:"deadline"`
}

// Execute 扫描一批超时订单并逐个取消
// 每个订单独立事务；加锁后再次确认仍在等待支付，且以payment_status<>'paid'为条件更新，
// 与IPN并发时以先提交者为准
func (uc *ExpireStalePaymentsUseCase) Execute(ctx context.Context) (*ExpireResponse, error) {
	deadline := uc.now().Add(-uc.expireAfter)
	candidates, err := uc.orderRepo.FindAwaitingPayment(ctx, deadline, expireBatchSize)
	if err != nil {
		return nil, err
	}

	resp := &ExpireResponse{Expired: []string{}, Checked: len(candidates), Deadline: deadline.Format(timeLayout)}
	for _, c := range candidates {
		expired, err := uc.expireOne(ctx, c.ID)
		if err != nil {
			uc.logger.Warn("取消超时订单失败", zap.String("order_no", c.OrderNo), zap.Error(err))
			continue
		}
		if !expired {
			continue
		}
		uc.dispatcher.DispatchOrder(ctx, c.ID)
		metrics.IncCounter(metrics.OrdersExpiredTotal)
		resp.Expired = append(resp.Expired, c.OrderNo)
	}

	if len(resp.Expired) > 0 {
		uc.logger.Info("已取消超时未支付订单", zap.Strings("order_nos", resp.Expired))
	}
	return resp, nil
}

func (uc *ExpireStalePaymentsUseCase) expireOne(ctx context.Context, orderID uint) (bool, error) {
	expired := false
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if !o.AwaitingPayment() {
			return nil
		}

		from := o.Status
		now := uc.now()
		o.ExpirePayment(expireReason, now)
		ok, err := uc.orderRepo.UpdateIfUnpaid(txCtx, o)
		if err != nil || !ok {
			return err
		}

		event, err := effect.EventTask(o, effect.RoutingOrderPaymentFailed, from, now)
		if err != nil {
			return err
		}
		expired = true
		return uc.tasks.Enqueue(txCtx, event)
	})
	return expired, err
}

// ExpiryWorker 按固定间隔执行ExpireStalePaymentsUseCase
type ExpiryWorker struct {
	useCase  *ExpireStalePaymentsUseCase
	interval time.Duration
	logger   *zap.Logger
}

func NewExpiryWorker(useCase *ExpireStalePaymentsUseCase, cfg *config.Config, logger *zap.Logger) *ExpiryWorker {
	interval := cfg.Payment.ExpireInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{useCase: useCase, interval: interval, logger: logger}
}

// Run 阻塞运行直到ctx取消
func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("支付超时扫描已启动", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("支付超时扫描已停止")
			return
		case <-ticker.C:
			if _, err := w.useCase.Execute(ctx); err != nil {
				w.logger.Error("扫描超时订单失败", zap.Error(err))
			}
		}
	}
}
