package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	orderapp "github.com/xiebiao/plantshop/internal/application/order"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/internal/domain/user"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/testutil/memstore"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
	"github.com/xiebiao/plantshop/pkg/mq"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	requests []payment.SessionRequest
	err      error
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.SessionRequest) (*payment.CreateResponse, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.CreateResponse{
		OrderID:    req.OrderNo,
		ResultCode: payment.Numeric(payment.ResultSuccess),
		PayURL:     "https://test-payment.momo.vn/pay/" + req.OrderNo,
	}, nil
}

type harness struct {
	store      *memstore.Store
	dispatcher *effect.Dispatcher
	signer     *payment.Signer
	gateway    *fakeGateway
	reconciler *Reconciler
	cfg        *config.Config
	logger     *zap.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memstore.New()
	s.Now = func() time.Time { return testNow }
	logger := zap.NewNop()
	cfg := &config.Config{
		App:    config.AppConfig{FrontendURL: "http://shop.test/"},
		Effect: config.EffectConfig{MaxAttempts: 3, BatchSize: 10},
	}
	d := effect.NewDispatcher(
		s.Orders(), s.Outbox(), s.TxManager(),
		inventory.NewLedger(s.Products(), s.InventoryLogs(), logger),
		loyalty.NewLedger(s.Balances(), logger),
		coupon.NewCounter(s.Coupons(), logger),
		s.Carts(), mq.NopPublisher{Logger: logger}, cfg, logger,
	)

	s.PutUser(&user.User{ID: 100, Email: "an@example.com", LoyaltyPoints: 5})
	s.PutProduct(&inventory.Product{ID: 1, Name: "Sen đá", Price: 50000, InStock: 10, SoldCount: 1})
	s.PutProduct(&inventory.Product{ID: 2, Name: "Chậu gốm", Price: 200000, InStock: 4})
	s.PutCoupon(&coupon.Coupon{ID: 7, Code: "GREEN", DiscountType: coupon.DiscountFixed, DiscountValue: 50000, MaxUsage: 10, TimeUsed: 2, IsActive: true})

	rec := NewReconciler(s.Orders(), s.Outbox(), s.TxManager(), d, logger)
	rec.now = func() time.Time { return testNow }

	return &harness{
		store:      s,
		dispatcher: d,
		signer:     payment.NewSigner(payment.Credentials{PartnerCode: "MOMO", AccessKey: "F8BBA842ECF85", SecretKey: "K951B6PE1waDMi640xX08PD3vg6EkVlz"}),
		gateway:    &fakeGateway{},
		reconciler: rec,
		cfg:        cfg,
		logger:     logger,
	}
}

func (h *harness) putCart(applied *coupon.Applied) {
	c := &cart.Cart{UserID: 100, AppliedCoupon: applied}
	c.AddItem(cart.Item{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 3})
	c.AddItem(cart.Item{ProductID: 2, ProductName: "Chậu gốm", Price: 200000, Quantity: 1})
	h.store.PutCart(c)
}

func (h *harness) createUseCase() *CreateMomoPaymentUseCase {
	s := h.store
	uc := NewCreateMomoPaymentUseCase(
		s.Orders(), s.Outbox(), s.Products(), s.Carts(),
		loyalty.NewLedger(s.Balances(), h.logger),
		h.gateway, s.TxManager(), h.dispatcher, h.logger,
	)
	uc.now = func() time.Time { return testNow }
	return uc
}

func (h *harness) ipnUseCase() *IPNUseCase {
	return NewIPNUseCase(h.store.Orders(), h.signer, h.reconciler, h.logger)
}

// seedAwaiting 等待支付的MoMo订单：抵扣3积分，可得41积分，使用优惠券7
func (h *harness) seedAwaiting(t *testing.T) *order.Order {
	t.Helper()
	h.putCart(&coupon.Applied{CouponID: 7, Code: "GREEN", Discount: 50000})
	couponID := uint(7)
	o := &order.Order{
		OrderNo: "ORD1772359200123456",
		UserID:  100,
		Items: []order.OrderItem{
			{ProductID: 1, ProductName: "Sen đá", Price: 50000, Quantity: 3, SubTotal: 150000},
			{ProductID: 2, ProductName: "Chậu gốm", Price: 200000, Quantity: 1, SubTotal: 200000},
		},
		Subtotal:      350000,
		Discount:      50000,
		PointUsed:     3000,
		TotalPrice:    356700,
		PointEarned:   41,
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentMomo,
		PaymentStatus: order.PaymentPending,
		StatusHistory: []order.HistoryEntry{{Status: order.StatusPending, UpdatedAt: testNow}},
		CouponID:      &couponID,
		CreatedAt:     testNow,
	}
	h.store.PutOrder(o)
	return o
}

func (h *harness) signedIPN(orderNo, resultCode, message string) *payment.IPN {
	ipn := &payment.IPN{
		PartnerCode:  "MOMO",
		OrderID:      orderNo,
		RequestID:    "MOMO-" + orderNo + "-1772359200000",
		Amount:       payment.Numeric("356700"),
		OrderInfo:    payment.DefaultOrderInfo(orderNo),
		OrderType:    "momo_wallet",
		TransID:      payment.Numeric("4088878653"),
		ResultCode:   payment.Numeric(resultCode),
		Message:      message,
		PayType:      "qr",
		ResponseTime: payment.Numeric("1772359260000"),
		ExtraData:    payment.EncodeExtraData(orderNo),
	}
	ipn.Signature = h.signer.SignIPN(ipn)
	return ipn
}

func TestCreateMomoPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("抵扣积分并创建支付会话", func(t *testing.T) {
		h := newHarness(t)
		h.putCart(nil)

		resp, err := h.createUseCase().Execute(ctx, CreateMomoPaymentRequest{UserID: 100, PointsToUse: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 3, resp.PointsUsed)
		assert.EqualValues(t, 411700, resp.Summary.Total)
		assert.Contains(t, resp.PayURL, resp.OrderNo)

		require.Len(t, h.gateway.requests, 1)
		assert.Equal(t, resp.OrderNo, h.gateway.requests[0].OrderNo)
		assert.EqualValues(t, 411700, h.gateway.requests[0].Amount)

		o := h.store.Order(resp.OrderID)
		require.NotNil(t, o)
		assert.Equal(t, order.PaymentMomo, o.PaymentMethod)
		assert.Equal(t, order.PaymentPending, o.PaymentStatus)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.EqualValues(t, 3000, o.PointUsed)
		assert.EqualValues(t, 41, o.PointEarned)
		assert.Equal(t, "N/A", o.Address.City)

		// 支付成功前不扣积分、不清购物车
		assert.EqualValues(t, 5, h.store.Points(100))
		assert.True(t, h.store.HasCart(100))
	})

	t.Run("抵扣积分不超过余额", func(t *testing.T) {
		h := newHarness(t)
		h.putCart(nil)

		resp, err := h.createUseCase().Execute(ctx, CreateMomoPaymentRequest{UserID: 100, PointsToUse: 100})
		require.NoError(t, err)
		assert.EqualValues(t, 5, resp.PointsUsed)
	})

	t.Run("购物车为空", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.createUseCase().Execute(ctx, CreateMomoPaymentRequest{UserID: 100})
		assert.ErrorIs(t, err, cart.ErrCartEmpty)
		assert.Empty(t, h.gateway.requests)
	})

	t.Run("库存不足", func(t *testing.T) {
		h := newHarness(t)
		h.store.PutProduct(&inventory.Product{ID: 2, Name: "Chậu gốm", InStock: 0})
		h.putCart(nil)

		_, err := h.createUseCase().Execute(ctx, CreateMomoPaymentRequest{UserID: 100})
		assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
		assert.Empty(t, h.gateway.requests)

		orders, _, err := h.store.Orders().ListByUserID(ctx, 100, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("网关失败时取消订单", func(t *testing.T) {
		h := newHarness(t)
		h.putCart(nil)
		h.gateway.err = apperrors.WithCause(payment.ErrPaymentGateway, errors.New("connection refused"))

		_, err := h.createUseCase().Execute(ctx, CreateMomoPaymentRequest{UserID: 100})
		assert.ErrorIs(t, err, payment.ErrPaymentGateway)

		orders, _, err := h.store.Orders().ListByUserID(ctx, 100, 1, 10)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, order.StatusCanceled, orders[0].Status)
		assert.Equal(t, order.PaymentFailed, orders[0].PaymentStatus)
		assert.True(t, h.store.HasCart(100))
	})
}

func TestIPN(t *testing.T) {
	ctx := context.Background()

	t.Run("场景D支付成功", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		result, err := h.ipnUseCase().Execute(ctx, h.signedIPN(o.OrderNo, "0", "Thành công."))
		require.NoError(t, err)
		assert.False(t, result.AlreadyProcessed)
		assert.Equal(t, "paid", result.PaymentStatus)
		assert.Equal(t, "preparing", result.Status)

		stored := h.store.Order(o.ID)
		assert.Equal(t, order.PaymentPaid, stored.PaymentStatus)
		assert.Equal(t, order.StatusPreparing, stored.Status)
		assert.Equal(t, "4088878653", stored.MomoTransID)
		assert.True(t, stored.PointRewarded())
		assert.False(t, stored.StockDeducted())
		assert.Len(t, stored.StatusHistory, 2)

		// 5 - 3(抵扣) + 41(奖励)
		assert.EqualValues(t, 43, h.store.Points(100))
		assert.False(t, h.store.HasCart(100))
		assert.Equal(t, 3, h.store.Coupon(7).TimeUsed)
		assert.Equal(t, 10, h.store.Product(1).InStock)
	})

	t.Run("重复回调只生效一次", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)
		uc := h.ipnUseCase()

		_, err := uc.Execute(ctx, h.signedIPN(o.OrderNo, "0", "Thành công."))
		require.NoError(t, err)
		h.putCart(nil)

		result, err := uc.Execute(ctx, h.signedIPN(o.OrderNo, "0", "Thành công."))
		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		assert.Empty(t, result.Effects)

		assert.EqualValues(t, 43, h.store.Points(100))
		assert.Equal(t, 3, h.store.Coupon(7).TimeUsed)
		assert.True(t, h.store.HasCart(100))
		assert.Len(t, h.store.Order(o.ID).StatusHistory, 2)
	})

	t.Run("签名被篡改", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		ipn := h.signedIPN(o.OrderNo, "0", "Thành công.")
		last := ipn.Signature[len(ipn.Signature)-1]
		replacement := byte('0')
		if last == '0' {
			replacement = '1'
		}
		ipn.Signature = ipn.Signature[:len(ipn.Signature)-1] + string(replacement)

		_, err := h.ipnUseCase().Execute(ctx, ipn)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)

		stored := h.store.Order(o.ID)
		assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
		assert.Equal(t, order.StatusPending, stored.Status)
		assert.EqualValues(t, 5, h.store.Points(100))
		assert.Empty(t, h.store.Tasks())
	})

	t.Run("金额被篡改", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		ipn := h.signedIPN(o.OrderNo, "0", "Thành công.")
		ipn.Amount = payment.Numeric("1000")

		_, err := h.ipnUseCase().Execute(ctx, ipn)
		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("订单不存在", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.ipnUseCase().Execute(ctx, h.signedIPN("ORD404", "0", ""))
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("orderId为空时使用extraData", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		ipn := h.signedIPN(o.OrderNo, "0", "Thành công.")
		ipn.OrderID = ""
		ipn.Signature = h.signer.SignIPN(ipn)

		result, err := h.ipnUseCase().Execute(ctx, ipn)
		require.NoError(t, err)
		assert.Equal(t, o.OrderNo, result.OrderNo)
		assert.Equal(t, "paid", result.PaymentStatus)
	})

	t.Run("支付失败取消订单", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		result, err := h.ipnUseCase().Execute(ctx, h.signedIPN(o.OrderNo, "1006", "Giao dịch bị từ chối bởi người dùng."))
		require.NoError(t, err)
		assert.Equal(t, "failed", result.PaymentStatus)
		assert.Equal(t, "canceled", result.Status)

		stored := h.store.Order(o.ID)
		assert.Contains(t, stored.CancelReason, "Giao dịch bị từ chối")
		assert.NotNil(t, stored.CanceledAt)
		assert.EqualValues(t, 5, h.store.Points(100))
		assert.True(t, h.store.HasCart(100))
	})

	t.Run("超时取消后到账只记录支付结果", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)
		o.ExpirePayment("支付超时自动取消", testNow)
		h.store.PutOrder(o)

		result, err := h.ipnUseCase().Execute(ctx, h.signedIPN(o.OrderNo, "0", "Thành công."))
		require.NoError(t, err)
		assert.Equal(t, "paid", result.PaymentStatus)
		assert.Equal(t, "canceled", result.Status)

		stored := h.store.Order(o.ID)
		assert.False(t, stored.PointRewarded())
		assert.EqualValues(t, 5, h.store.Points(100))
		assert.Equal(t, 2, h.store.Coupon(7).TimeUsed)
	})

	t.Run("支付后完成订单只扣库存不重复发积分", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		_, err := h.ipnUseCase().Execute(ctx, h.signedIPN(o.OrderNo, "0", "Thành công."))
		require.NoError(t, err)

		setStatus := orderapp.NewSetStatusUseCase(h.store.Orders(), h.store.Outbox(), h.store.TxManager(), h.dispatcher, h.logger)
		resp, err := setStatus.Execute(ctx, orderapp.SetStatusRequest{OrderID: o.ID, Status: "done"})
		require.NoError(t, err)
		assert.True(t, resp.Changed)

		assert.EqualValues(t, 43, h.store.Points(100))
		assert.Equal(t, 7, h.store.Product(1).InStock)
		assert.Equal(t, 3, h.store.Product(2).InStock)
		assert.True(t, h.store.Order(o.ID).StockDeducted())
	})
}

func TestReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("支付成功跳转", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)
		uc := NewReturnUseCase(h.reconciler, h.cfg, h.logger)

		resp, err := uc.Execute(ctx, ReturnRequest{OrderID: o.OrderNo, ResultCode: "0", TransID: "4088878653"})
		require.NoError(t, err)
		assert.Equal(t, MsgPaid, resp.Msg)
		assert.Equal(t, "http://shop.test/orders/"+o.OrderNo+"?msg=paid", resp.RedirectURL)
		assert.Equal(t, order.PaymentPaid, h.store.Order(o.ID).PaymentStatus)
	})

	t.Run("IPN先到时回跳不重复入账", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)
		_, err := h.ipnUseCase().Execute(ctx, h.signedIPN(o.OrderNo, "0", "Thành công."))
		require.NoError(t, err)

		resp, err := NewReturnUseCase(h.reconciler, h.cfg, h.logger).Execute(ctx, ReturnRequest{OrderID: o.OrderNo, ResultCode: "0"})
		require.NoError(t, err)
		assert.Equal(t, MsgPaid, resp.Msg)
		assert.EqualValues(t, 43, h.store.Points(100))
	})

	t.Run("用户取消支付", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)

		resp, err := NewReturnUseCase(h.reconciler, h.cfg, h.logger).Execute(ctx, ReturnRequest{OrderID: o.OrderNo, ResultCode: "1006", Message: "Người dùng từ chối"})
		require.NoError(t, err)
		assert.Equal(t, MsgPayFailed, resp.Msg)
		assert.Equal(t, order.StatusCanceled, h.store.Order(o.ID).Status)
	})

	t.Run("订单不存在", func(t *testing.T) {
		h := newHarness(t)
		resp, err := NewReturnUseCase(h.reconciler, h.cfg, h.logger).Execute(ctx, ReturnRequest{ResultCode: "0"})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.Equal(t, MsgNotFound, resp.Msg)
		assert.Equal(t, "http://shop.test/orders?msg=not_found", resp.RedirectURL)
	})

	t.Run("货到付款订单", func(t *testing.T) {
		h := newHarness(t)
		o := h.seedAwaiting(t)
		o.PaymentMethod = order.PaymentCOD
		h.store.PutOrder(o)

		resp, err := NewReturnUseCase(h.reconciler, h.cfg, h.logger).Execute(ctx, ReturnRequest{OrderID: o.OrderNo, ResultCode: "0"})
		assert.ErrorIs(t, err, payment.ErrNotOnlinePayment)
		assert.Equal(t, MsgError, resp.Msg)
	})
}
