package effect

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/domain/user"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/testutil/memstore"
)

type published struct {
	routingKey string
	body       []byte
}

type recordingPublisher struct {
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	body, _ := message.(json.RawMessage)
	p.sent = append(p.sent, published{routingKey: routingKey, body: body})
	return nil
}

type harness struct {
	store      *memstore.Store
	dispatcher *Dispatcher
	relay      *Relay
	publisher  *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memstore.New()
	pub := &recordingPublisher{}
	cfg := &config.Config{Effect: config.EffectConfig{MaxAttempts: 2, BatchSize: 10}}
	logger := zap.NewNop()

	d := NewDispatcher(
		s.Orders(), s.Outbox(), s.TxManager(),
		inventory.NewLedger(s.Products(), s.InventoryLogs(), logger),
		loyalty.NewLedger(s.Balances(), logger),
		coupon.NewCounter(s.Coupons(), logger),
		s.Carts(), pub, cfg, logger,
	)
	return &harness{store: s, dispatcher: d, relay: NewRelay(s.Outbox(), d, cfg, logger), publisher: pub}
}

// seedOrder 场景A订单：3×50000 + 1×200000，总价415000
func (h *harness) seedOrder(t *testing.T) *order.Order {
	t.Helper()
	h.store.PutUser(&user.User{ID: 100, Email: "an@example.com", LoyaltyPoints: 5})
	h.store.PutProduct(&inventory.Product{ID: 1, Name: "Sen đá", InStock: 10, SoldCount: 1})
	h.store.PutProduct(&inventory.Product{ID: 2, Name: "Chậu gốm", InStock: 4})

	o := &order.Order{
		OrderNo: "ORD1",
		UserID:  100,
		Items: []order.OrderItem{
			{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 3, SubTotal: 150000},
			{ProductID: 2, ProductName: "Chậu gốm", Price: 200000, Quantity: 1, SubTotal: 200000},
		},
		Subtotal:      350000,
		Tax:           35000,
		ShippingFee:   30000,
		TotalPrice:    415000,
		Status:        order.StatusDone,
		PaymentMethod: order.PaymentCOD,
		PaymentStatus: order.PaymentUnpaid,
		StatusHistory: []order.HistoryEntry{{Status: order.StatusPending, UpdatedAt: time.Now()}},
		CreatedAt:     time.Now(),
	}
	h.store.PutOrder(o)
	return o
}

func (h *harness) enqueue(t *testing.T, orderID uint, kinds ...outbox.Kind) {
	t.Helper()
	for _, k := range kinds {
		require.NoError(t, h.store.Outbox().Enqueue(context.Background(), outbox.NewTask(orderID, k)))
	}
}

func TestDispatcher_DoneEffects(t *testing.T) {
	ctx := context.Background()

	t.Run("进入done扣库存并发放积分", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedOrder(t)
		h.enqueue(t, o.ID, outbox.KindAwardPoints, outbox.KindDeductStock)

		outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
		require.Len(t, outcomes, 2)
		assert.Equal(t, ResultApplied, outcomes[0].Result)
		assert.EqualValues(t, 41, outcomes[0].Points)
		assert.Equal(t, ResultApplied, outcomes[1].Result)
		require.Len(t, outcomes[1].Items, 2)

		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.Equal(t, 4, h.store.Product(1).SoldCount)
		assert.Equal(t, 3, h.store.Product(2).InStock)
		assert.EqualValues(t, 46, h.store.Points(100))

		stored := h.store.Order(o.ID)
		assert.True(t, stored.StockDeducted())
		assert.True(t, stored.PointRewarded())
	})

	t.Run("重复执行只生效一次", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedOrder(t)
		h.enqueue(t, o.ID, outbox.KindAwardPoints, outbox.KindDeductStock)
		h.dispatcher.DispatchOrder(ctx, o.ID)

		h.enqueue(t, o.ID, outbox.KindAwardPoints, outbox.KindDeductStock)
		outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
		require.Len(t, outcomes, 2)
		assert.Equal(t, ResultNoop, outcomes[0].Result)
		assert.Equal(t, ResultNoop, outcomes[1].Result)

		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.EqualValues(t, 46, h.store.Points(100))
	})

	t.Run("离开done完全回滚", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedOrder(t)
		h.enqueue(t, o.ID, outbox.KindAwardPoints, outbox.KindDeductStock)
		h.dispatcher.DispatchOrder(ctx, o.ID)

		h.enqueue(t, o.ID, outbox.KindRevokePoints, outbox.KindRestoreStock)
		outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
		require.Len(t, outcomes, 2)
		assert.Equal(t, ResultApplied, outcomes[0].Result)
		assert.Equal(t, ResultApplied, outcomes[1].Result)

		assert.Equal(t, 10, h.store.Product(1).InStock)
		assert.Equal(t, 1, h.store.Product(1).SoldCount)
		assert.Equal(t, 4, h.store.Product(2).InStock)
		assert.EqualValues(t, 5, h.store.Points(100))

		stored := h.store.Order(o.ID)
		assert.False(t, stored.StockDeducted())
		assert.False(t, stored.PointRewarded())
	})

	t.Run("回收积分钳制在0", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedOrder(t)
		o.Effects = o.Effects.With(order.EffectPointsRewarded)
		h.store.PutOrder(o)

		h.enqueue(t, o.ID, outbox.KindRevokePoints)
		h.dispatcher.DispatchOrder(ctx, o.ID)
		assert.EqualValues(t, 0, h.store.Points(100))
	})

	t.Run("未扣库存时回补为noop", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedOrder(t)
		o.Effects = o.Effects.With(order.EffectPointsRewarded)
		h.store.PutOrder(o)

		h.enqueue(t, o.ID, outbox.KindRestoreStock)
		outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
		require.Len(t, outcomes, 1)
		assert.Equal(t, ResultNoop, outcomes[0].Result)
		assert.Equal(t, 10, h.store.Product(1).InStock)
	})

	t.Run("商品缺失时其余明细照常扣减", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedOrder(t)
		o.Items = append(o.Items, order.OrderItem{ProductID: 99, Quantity: 1})
		h.store.PutOrder(o)

		h.enqueue(t, o.ID, outbox.KindDeductStock)
		outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
		require.Len(t, outcomes[0].Items, 3)
		assert.Equal(t, inventory.OutcomeSkipped, outcomes[0].Items[2].Outcome)
		assert.Equal(t, inventory.ReasonProductNotFound, outcomes[0].Items[2].Reason)
		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.True(t, h.store.Order(o.ID).StockDeducted())
	})
}

func TestDispatcher_Supersede(t *testing.T) {
	h := newHarness(t)
	o := h.seedOrder(t)

	h.enqueue(t, o.ID, outbox.KindAwardPoints, outbox.KindDeductStock)
	h.enqueue(t, o.ID, outbox.KindRevokePoints, outbox.KindRestoreStock)

	outcomes := h.dispatcher.DispatchOrder(context.Background(), o.ID)
	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.Equal(t, ResultNoop, out.Result)
	}

	var superseded int
	for _, task := range h.store.Tasks() {
		if task.Status == outbox.StatusSuperseded {
			superseded++
		}
	}
	assert.Equal(t, 2, superseded)
	assert.Equal(t, 10, h.store.Product(1).InStock)
	assert.EqualValues(t, 5, h.store.Points(100))
}

func TestDispatcher_FailureAndReplay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.seedOrder(t)
	h.store.FailOn(memstore.OpAddPoints, errors.New("db down"))

	h.enqueue(t, o.ID, outbox.KindAwardPoints)
	outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
	require.Len(t, outcomes, 1)
	assert.Equal(t, ResultFailed, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Error, "db down")

	// 事务回滚，标记未翻转
	assert.False(t, h.store.Order(o.ID).PointRewarded())
	tasks := h.store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, outbox.StatusPending, tasks[0].Status)
	assert.Equal(t, 1, tasks[0].Attempts)

	t.Run("恢复后重放成功", func(t *testing.T) {
		h.store.FailOn(memstore.OpAddPoints, nil)
		replayed := h.relay.ReplayOnce(ctx)
		require.Len(t, replayed, 1)
		assert.Equal(t, ResultApplied, replayed[0].Result)
		assert.EqualValues(t, 46, h.store.Points(100))
		assert.Equal(t, outbox.StatusDone, h.store.Tasks()[0].Status)
	})
}

func TestDispatcher_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.seedOrder(t)
	h.store.FailOn(memstore.OpCartClear, errors.New("redis down"))

	h.enqueue(t, o.ID, outbox.KindClearCart)
	h.dispatcher.DispatchOrder(ctx, o.ID)
	h.relay.ReplayOnce(ctx)

	tasks := h.store.Tasks()
	assert.Equal(t, outbox.StatusFailed, tasks[0].Status)
	assert.Equal(t, 2, tasks[0].Attempts)
	assert.Empty(t, h.relay.ReplayOnce(ctx))
}

func TestDispatcher_PaymentEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.seedOrder(t)
	couponID := uint(7)
	o.CouponID = &couponID
	o.PointUsed = 3000
	h.store.PutOrder(o)
	h.store.PutCoupon(&coupon.Coupon{ID: 7, Code: "SALE5", MaxUsage: 10, TimeUsed: 2, IsActive: true})
	h.store.PutCart(&cart.Cart{UserID: 100, Items: []cart.Item{{ProductID: 1, Quantity: 1}}})

	h.enqueue(t, o.ID, outbox.KindRedeemPoints, outbox.KindClearCart, outbox.KindRedeemCoupon)
	h.dispatcher.DispatchOrder(ctx, o.ID)

	assert.EqualValues(t, 2, h.store.Points(100))
	assert.False(t, h.store.HasCart(100))
	assert.Equal(t, 3, h.store.Coupon(7).TimeUsed)

	t.Run("重复入队不重复计数", func(t *testing.T) {
		h.enqueue(t, o.ID, outbox.KindRedeemPoints, outbox.KindClearCart, outbox.KindRedeemCoupon)
		for _, out := range h.dispatcher.DispatchOrder(ctx, o.ID) {
			assert.Equal(t, ResultNoop, out.Result)
		}
		assert.EqualValues(t, 2, h.store.Points(100))
		assert.Equal(t, 3, h.store.Coupon(7).TimeUsed)
	})

	t.Run("无优惠券为noop", func(t *testing.T) {
		other := h.seedOrder(t)
		h.enqueue(t, other.ID, outbox.KindRedeemCoupon)
		outcomes := h.dispatcher.DispatchOrder(ctx, other.ID)
		require.Len(t, outcomes, 1)
		assert.Equal(t, ResultNoop, outcomes[0].Result)
		assert.False(t, h.store.Order(other.ID).Effects.Has(order.EffectCouponRedeemed))
	})
}

func TestDispatcher_PublishEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	o := h.seedOrder(t)

	task, err := EventTask(o, RoutingOrderStatusChanged, order.StatusShipping, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.store.Outbox().Enqueue(ctx, task))

	outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
	require.Len(t, outcomes, 1)
	assert.Equal(t, ResultApplied, outcomes[0].Result)

	require.Len(t, h.publisher.sent, 1)
	assert.Equal(t, RoutingOrderStatusChanged, h.publisher.sent[0].routingKey)

	var ev OrderEvent
	require.NoError(t, json.Unmarshal(h.publisher.sent[0].body, &ev))
	assert.Equal(t, "ORD1", ev.OrderNo)
	assert.Equal(t, "shipping", ev.From)
	assert.Equal(t, "done", ev.To)

	t.Run("发布失败保持pending", func(t *testing.T) {
		h.publisher.err = errors.New("broker down")
		task, err := EventTask(o, RoutingOrderPaid, order.StatusPending, time.Now())
		require.NoError(t, err)
		require.NoError(t, h.store.Outbox().Enqueue(ctx, task))

		outcomes := h.dispatcher.DispatchOrder(ctx, o.ID)
		require.Len(t, outcomes, 1)
		assert.Equal(t, ResultFailed, outcomes[0].Result)
	})
}
