package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/domain/user"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/testutil/memstore"
	"github.com/xiebiao/plantshop/pkg/mq"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

var testAddress = order.Address{Number: "12", Street: "Lê Lợi", District: "Quận 1", City: "TP. Hồ Chí Minh"}

type harness struct {
	store      *memstore.Store
	dispatcher *effect.Dispatcher
	stock      *inventory.Ledger
	cfg        *config.Config
	logger     *zap.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memstore.New()
	s.Now = func() time.Time { return testNow }
	logger := zap.NewNop()
	cfg := &config.Config{
		Effect:  config.EffectConfig{MaxAttempts: 3, BatchSize: 10},
		Payment: config.PaymentConfig{ExpireAfter: 30 * time.Minute, ExpireInterval: time.Minute},
	}
	stock := inventory.NewLedger(s.Products(), s.InventoryLogs(), logger)
	d := effect.NewDispatcher(
		s.Orders(), s.Outbox(), s.TxManager(),
		stock,
		loyalty.NewLedger(s.Balances(), logger),
		coupon.NewCounter(s.Coupons(), logger),
		s.Carts(), mq.NopPublisher{Logger: logger}, cfg, logger,
	)

	// 场景A：顾客100有5积分；商品1库存10已售1，商品2库存4
	s.PutUser(&user.User{ID: 100, Email: "an@example.com", LoyaltyPoints: 5})
	s.PutProduct(&inventory.Product{ID: 1, Name: "Sen đá", Price: 50000, InStock: 10, SoldCount: 1})
	s.PutProduct(&inventory.Product{ID: 2, Name: "Chậu gốm", Price: 200000, InStock: 4})

	return &harness{store: s, dispatcher: d, stock: stock, cfg: cfg, logger: logger}
}

func (h *harness) putCart(applied *coupon.Applied) {
	c := &cart.Cart{UserID: 100, AppliedCoupon: applied}
	c.AddItem(cart.Item{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 3})
	c.AddItem(cart.Item{ProductID: 2, ProductName: "Chậu gốm", Price: 200000, Quantity: 1})
	h.store.PutCart(c)
}

func (h *harness) checkout() *CheckoutUseCase {
	uc := NewCheckoutUseCase(h.store.Orders(), h.store.Outbox(), h.store.Carts(), h.store.TxManager(), h.dispatcher, h.logger)
	uc.now = func() time.Time { return testNow }
	return uc
}

func (h *harness) setStatus() *SetStatusUseCase {
	uc := NewSetStatusUseCase(h.store.Orders(), h.store.Outbox(), h.store.TxManager(), h.dispatcher, h.logger)
	uc.now = func() time.Time { return testNow }
	return uc
}

func (h *harness) cancel() *CancelOrderUseCase {
	uc := NewCancelOrderUseCase(h.store.Orders(), h.store.Outbox(), h.store.TxManager(), h.dispatcher, h.logger)
	uc.now = func() time.Time { return testNow }
	return uc
}

// placeOrder 场景A货到付款订单
func (h *harness) placeOrder(t *testing.T) uint {
	t.Helper()
	h.putCart(nil)
	resp, err := h.checkout().Execute(context.Background(), CheckoutRequest{UserID: 100, Address: testAddress})
	require.NoError(t, err)
	return resp.OrderID
}

func outcomeOf(outcomes []effect.Outcome, kind outbox.Kind) effect.Outcome {
	for _, o := range outcomes {
		if o.Kind == kind {
			return o
		}
	}
	return effect.Outcome{}
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("购物车为空", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.checkout().Execute(ctx, CheckoutRequest{UserID: 100, Address: testAddress})
		assert.ErrorIs(t, err, cart.ErrCartEmpty)
	})

	t.Run("地址不完整", func(t *testing.T) {
		h := newHarness(t)
		h.putCart(nil)
		_, err := h.checkout().Execute(ctx, CheckoutRequest{UserID: 100, Address: order.Address{Street: "Lê Lợi"}})
		assert.ErrorIs(t, err, order.ErrAddressRequired)
		assert.True(t, h.store.HasCart(100))
	})

	t.Run("场景A下单", func(t *testing.T) {
		h := newHarness(t)
		h.putCart(nil)

		resp, err := h.checkout().Execute(ctx, CheckoutRequest{UserID: 100, Address: testAddress, Note: "giao buổi sáng"})
		require.NoError(t, err)
		assert.EqualValues(t, 415000, resp.Summary.Total)
		assert.EqualValues(t, 41, resp.PointEarned)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "unpaid", resp.PaymentStatus)

		o := h.store.Order(resp.OrderID)
		require.NotNil(t, o)
		assert.Equal(t, order.PaymentCOD, o.PaymentMethod)
		assert.Len(t, o.Items, 2)
		assert.Nil(t, o.CouponID)
		assert.True(t, o.Effects.Has(order.EffectCartCleared))
		assert.False(t, o.StockDeducted())
		assert.False(t, h.store.HasCart(100))

		// 下单不扣库存、不发积分
		assert.Equal(t, 10, h.store.Product(1).InStock)
		assert.EqualValues(t, 5, h.store.Points(100))
	})

	t.Run("带优惠券下单时计数", func(t *testing.T) {
		h := newHarness(t)
		h.store.PutCoupon(&coupon.Coupon{ID: 7, Code: "GREEN", DiscountType: coupon.DiscountFixed, DiscountValue: 50000, MaxUsage: 10, TimeUsed: 2, IsActive: true})
		h.putCart(&coupon.Applied{CouponID: 7, Code: "GREEN", Discount: 50000})

		resp, err := h.checkout().Execute(ctx, CheckoutRequest{UserID: 100, Address: testAddress})
		require.NoError(t, err)
		assert.EqualValues(t, 360000, resp.Summary.Total)
		assert.EqualValues(t, 36, resp.PointEarned)

		o := h.store.Order(resp.OrderID)
		require.NotNil(t, o.CouponID)
		assert.EqualValues(t, 7, *o.CouponID)
		assert.EqualValues(t, 50000, o.Discount)
		assert.Equal(t, 3, h.store.Coupon(7).TimeUsed)
	})

	t.Run("创建失败不写任务", func(t *testing.T) {
		h := newHarness(t)
		h.putCart(nil)
		h.store.FailOn(memstore.OpOutboxEnqueue, assert.AnError)

		_, err := h.checkout().Execute(ctx, CheckoutRequest{UserID: 100, Address: testAddress})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, h.store.Tasks())
		assert.True(t, h.store.HasCart(100))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("状态值非法", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)

		_, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: id, Status: "paid"})
		assert.ErrorIs(t, err, order.ErrInvalidStatus)
		assert.Len(t, h.store.Order(id).StatusHistory, 1)
	})

	t.Run("订单不存在", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: 404, Status: "done"})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("场景A完成后扣库存并发积分", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)

		resp, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: id, Status: "done", ActorID: 1})
		require.NoError(t, err)
		assert.True(t, resp.Changed)
		assert.Equal(t, "pending", resp.From)
		assert.Equal(t, "done", resp.To)

		award := outcomeOf(resp.Effects, outbox.KindAwardPoints)
		assert.Equal(t, effect.ResultApplied, award.Result)
		assert.EqualValues(t, 41, award.Points)

		deduct := outcomeOf(resp.Effects, outbox.KindDeductStock)
		assert.Equal(t, effect.ResultApplied, deduct.Result)
		require.Len(t, deduct.Items, 2)
		assert.Equal(t, inventory.OutcomeApplied, deduct.Items[0].Outcome)

		assert.EqualValues(t, 46, h.store.Points(100))
		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.Equal(t, 4, h.store.Product(1).SoldCount)
		assert.Equal(t, 3, h.store.Product(2).InStock)

		o := h.store.Order(id)
		assert.True(t, o.StockDeducted())
		assert.True(t, o.PointRewarded())
		assert.Len(t, o.StatusHistory, 2)
	})

	t.Run("场景B离开done时回退", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		uc := h.setStatus()

		_, err := uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "done"})
		require.NoError(t, err)

		resp, err := uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "preparing"})
		require.NoError(t, err)
		assert.Equal(t, effect.ResultApplied, outcomeOf(resp.Effects, outbox.KindRevokePoints).Result)
		assert.Equal(t, effect.ResultApplied, outcomeOf(resp.Effects, outbox.KindRestoreStock).Result)

		assert.EqualValues(t, 5, h.store.Points(100))
		assert.Equal(t, 10, h.store.Product(1).InStock)
		assert.Equal(t, 1, h.store.Product(1).SoldCount)
		assert.Equal(t, 4, h.store.Product(2).InStock)

		o := h.store.Order(id)
		assert.False(t, o.StockDeducted())
		assert.False(t, o.PointRewarded())
		assert.Len(t, o.StatusHistory, 3)

		// 再次完成只扣一次
		_, err = uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "done"})
		require.NoError(t, err)
		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.EqualValues(t, 46, h.store.Points(100))
	})

	t.Run("同状态不产生历史和副作用", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		before := len(h.store.Tasks())

		resp, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: id, Status: "pending"})
		require.NoError(t, err)
		assert.False(t, resp.Changed)
		assert.Empty(t, resp.Effects)
		assert.Len(t, h.store.Order(id).StatusHistory, 1)
		assert.Len(t, h.store.Tasks(), before)
	})

	t.Run("已取消订单不可流出", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		uc := h.setStatus()

		_, err := uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "canceled"})
		require.NoError(t, err)
		o := h.store.Order(id)
		assert.Equal(t, "订单已取消", o.StatusHistory[1].Note)

		_, err = uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "pending"})
		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
		assert.Equal(t, order.StatusCanceled, h.store.Order(id).Status)
	})

	t.Run("done直接取消时回退副作用", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		uc := h.setStatus()

		_, err := uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "done"})
		require.NoError(t, err)
		_, err = uc.Execute(ctx, SetStatusRequest{OrderID: id, Status: "canceled", Note: "khách trả hàng"})
		require.NoError(t, err)

		assert.EqualValues(t, 5, h.store.Points(100))
		assert.Equal(t, 10, h.store.Product(1).InStock)
		assert.Equal(t, "khách trả hàng", h.store.Order(id).CancelReason)
	})

	t.Run("积分发放失败不影响状态并可重放", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		h.store.FailOn(memstore.OpAddPoints, assert.AnError)

		resp, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: id, Status: "done"})
		require.NoError(t, err)
		assert.Equal(t, effect.ResultFailed, outcomeOf(resp.Effects, outbox.KindAwardPoints).Result)
		assert.Equal(t, effect.ResultApplied, outcomeOf(resp.Effects, outbox.KindDeductStock).Result)

		o := h.store.Order(id)
		assert.Equal(t, order.StatusDone, o.Status)
		assert.False(t, o.PointRewarded())
		assert.EqualValues(t, 5, h.store.Points(100))

		h.store.FailOn(memstore.OpAddPoints, nil)
		h.dispatcher.DispatchOrder(ctx, id)
		assert.EqualValues(t, 46, h.store.Points(100))
		assert.True(t, h.store.Order(id).PointRewarded())
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("不是本人的订单", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)

		_, err := h.cancel().Execute(ctx, CancelOrderRequest{OrderID: id, UserID: 999, Reason: "x"})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.Equal(t, order.StatusPending, h.store.Order(id).Status)
	})

	t.Run("缺少原因", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)

		_, err := h.cancel().Execute(ctx, CancelOrderRequest{OrderID: id, UserID: 100, Reason: " "})
		assert.ErrorIs(t, err, order.ErrCancelReasonRequired)
	})

	t.Run("配送中不可取消", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		_, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: id, Status: "shipping"})
		require.NoError(t, err)

		_, err = h.cancel().Execute(ctx, CancelOrderRequest{OrderID: id, UserID: 100, Reason: "đổi ý"})
		assert.ErrorIs(t, err, order.ErrCannotCancel)
	})

	t.Run("取消清除积分标记但不回退余额", func(t *testing.T) {
		h := newHarness(t)
		o := &order.Order{
			OrderNo:       "ORD2",
			UserID:        100,
			Items:         []order.OrderItem{{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 1, SubTotal: 50000}},
			TotalPrice:    85000,
			Status:        order.StatusPreparing,
			PaymentMethod: order.PaymentCOD,
			PaymentStatus: order.PaymentUnpaid,
			StatusHistory: []order.HistoryEntry{{Status: order.StatusPending}, {Status: order.StatusPreparing}},
			Effects:       order.EffectSet(0).With(order.EffectPointsRewarded),
		}
		h.store.PutOrder(o)

		resp, err := h.cancel().Execute(ctx, CancelOrderRequest{OrderID: o.ID, UserID: 100, Reason: "đổi ý"})
		require.NoError(t, err)
		assert.Equal(t, "canceled", resp.Status)
		assert.Equal(t, "đổi ý", resp.Reason)

		stored := h.store.Order(o.ID)
		assert.False(t, stored.PointRewarded())
		assert.NotNil(t, stored.CanceledAt)
		assert.Len(t, stored.StatusHistory, 3)
		assert.EqualValues(t, 5, h.store.Points(100))
	})

	t.Run("取消作废待执行的积分发放", func(t *testing.T) {
		h := newHarness(t)
		o := &order.Order{
			OrderNo:       "ORD3",
			UserID:        100,
			Items:         []order.OrderItem{{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 1, SubTotal: 50000}},
			TotalPrice:    85000,
			PointEarned:   8,
			Status:        order.StatusPreparing,
			PaymentMethod: order.PaymentCOD,
			PaymentStatus: order.PaymentUnpaid,
			StatusHistory: []order.HistoryEntry{{Status: order.StatusPending}, {Status: order.StatusPreparing}},
		}
		h.store.PutOrder(o)
		award := outbox.NewTask(o.ID, outbox.KindAwardPoints)
		require.NoError(t, h.store.Outbox().Enqueue(ctx, award))

		_, err := h.cancel().Execute(ctx, CancelOrderRequest{OrderID: o.ID, UserID: 100, Reason: "đổi ý"})
		require.NoError(t, err)

		for _, task := range h.store.Tasks() {
			if task.ID == award.ID {
				assert.Equal(t, outbox.StatusSuperseded, task.Status)
			}
		}
		pending, err := h.store.Outbox().PendingByOrder(ctx, o.ID)
		require.NoError(t, err)
		for _, task := range pending {
			assert.NotEqual(t, outbox.KindAwardPoints, task.Kind)
		}

		// 重放不会给已取消订单加分
		h.dispatcher.DispatchOrder(ctx, o.ID)
		assert.EqualValues(t, 5, h.store.Points(100))
		assert.False(t, h.store.Order(o.ID).PointRewarded())
	})
}

func TestExpireStalePayments(t *testing.T) {
	h := newHarness(t)
	momo := func(no string, age time.Duration, ps order.PaymentStatus) *order.Order {
		o := &order.Order{
			OrderNo:       no,
			UserID:        100,
			Items:         []order.OrderItem{{ProductID: 1, Price: 50000, Quantity: 1, SubTotal: 50000}},
			Status:        order.StatusPending,
			PaymentMethod: order.PaymentMomo,
			PaymentStatus: ps,
			StatusHistory: []order.HistoryEntry{{Status: order.StatusPending}},
			CreatedAt:     testNow.Add(-age),
		}
		h.store.PutOrder(o)
		return o
	}
	stale := momo("ORD-STALE", time.Hour, order.PaymentPending)
	fresh := momo("ORD-FRESH", 5*time.Minute, order.PaymentPending)
	unpaid := momo("ORD-UNPAID", 2*time.Hour, order.PaymentUnpaid)

	uc := NewExpireStalePaymentsUseCase(h.store.Orders(), h.store.Outbox(), h.store.TxManager(), h.dispatcher, h.cfg, h.logger)
	uc.now = func() time.Time { return testNow }

	resp, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ORD-STALE", "ORD-UNPAID"}, resp.Expired)

	for _, id := range []uint{stale.ID, unpaid.ID} {
		o := h.store.Order(id)
		assert.Equal(t, order.StatusCanceled, o.Status)
		assert.Equal(t, order.PaymentCanceled, o.PaymentStatus)
		assert.Equal(t, "支付超时自动取消", o.CancelReason)
		assert.Len(t, o.StatusHistory, 2)
	}
	assert.Equal(t, order.StatusPending, h.store.Order(fresh.ID).Status)

	t.Run("再次扫描无变化", func(t *testing.T) {
		resp, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Empty(t, resp.Expired)
	})
}

func TestRecordSale(t *testing.T) {
	ctx := context.Background()

	t.Run("出库写流水并防止done重复扣减", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		uc := NewRecordSaleUseCase(h.store.Orders(), h.stock, h.store.TxManager(), h.logger)

		resp, err := uc.Execute(ctx, RecordSaleRequest{OrderID: id, ActorID: 1})
		require.NoError(t, err)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 10, resp.Items[0].PreviousStock)
		assert.Equal(t, 7, resp.Items[0].NewStock)

		logs := h.store.Logs()
		require.Len(t, logs, 2)
		assert.Equal(t, inventory.LogSale, logs[0].Type)
		assert.Equal(t, "Bán hàng", logs[0].Reason)
		assert.Contains(t, logs[0].Note, h.store.Order(id).OrderNo)
		assert.True(t, h.store.Order(id).StockDeducted())

		_, err = uc.Execute(ctx, RecordSaleRequest{OrderID: id})
		assert.ErrorIs(t, err, ErrStockAlreadyDeducted)

		resp2, err := h.setStatus().Execute(ctx, SetStatusRequest{OrderID: id, Status: "done"})
		require.NoError(t, err)
		assert.Equal(t, effect.ResultNoop, outcomeOf(resp2.Effects, outbox.KindDeductStock).Result)
		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.Equal(t, 3, h.store.Product(2).InStock)
	})

	t.Run("库存不足整单回滚", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		h.store.PutProduct(&inventory.Product{ID: 2, Name: "Chậu gốm", InStock: 0})
		uc := NewRecordSaleUseCase(h.store.Orders(), h.stock, h.store.TxManager(), h.logger)

		_, err := uc.Execute(ctx, RecordSaleRequest{OrderID: id})
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
		assert.Equal(t, 10, h.store.Product(1).InStock)
		assert.Empty(t, h.store.Logs())
		assert.False(t, h.store.Order(id).StockDeducted())
	})

	t.Run("已取消订单", func(t *testing.T) {
		h := newHarness(t)
		id := h.placeOrder(t)
		_, err := h.cancel().Execute(ctx, CancelOrderRequest{OrderID: id, UserID: 100, Reason: "x"})
		require.NoError(t, err)

		uc := NewRecordSaleUseCase(h.store.Orders(), h.stock, h.store.TxManager(), h.logger)
		_, err = uc.Execute(ctx, RecordSaleRequest{OrderID: id})
		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.placeOrder(t)

	t.Run("我的订单", func(t *testing.T) {
		resp, err := NewListUserOrdersUseCase(h.store.Orders()).Execute(ctx, ListUserOrdersRequest{UserID: 100})
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.Total)
		assert.Equal(t, 10, resp.PageSize)
		require.Len(t, resp.Orders, 1)
		assert.Empty(t, resp.Orders[0].StatusHistory)
	})

	t.Run("详情校验归属", func(t *testing.T) {
		uc := NewGetOrderUseCase(h.store.Orders())
		_, err := uc.Execute(ctx, GetOrderRequest{OrderID: id, UserID: 999})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)

		view, err := uc.Execute(ctx, GetOrderRequest{OrderID: id, UserID: 100})
		require.NoError(t, err)
		assert.Len(t, view.StatusHistory, 1)
		assert.Equal(t, "待处理", view.StatusLabel)

		_, err = uc.Execute(ctx, GetOrderRequest{OrderID: id})
		assert.NoError(t, err)
	})

	t.Run("后台列表过滤", func(t *testing.T) {
		uc := NewListOrdersUseCase(h.store.Orders())
		_, err := uc.Execute(ctx, ListOrdersRequest{Status: "cancelled"})
		assert.ErrorIs(t, err, order.ErrInvalidStatus)

		resp, err := uc.Execute(ctx, ListOrdersRequest{Status: "all", PaymentMethod: "cod"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, resp.Total)

		resp, err = uc.Execute(ctx, ListOrdersRequest{Status: "done"})
		require.NoError(t, err)
		assert.EqualValues(t, 0, resp.Total)
	})
}
