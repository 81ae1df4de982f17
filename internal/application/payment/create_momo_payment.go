package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	orderapp "github.com/xiebiao/plantshop/internal/application/order"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/internal/domain/pricing"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
	"github.com/xiebiao/plantshop/pkg/metrics"
	"github.com/xiebiao/plantshop/pkg/saga"
)

const (
	sagaTimeout        = 45 * time.Second
	placeholderAddress = "N/A"
)

// ErrInvalidAmount 应付金额必须大于0
var ErrInvalidAmount = apperrors.New(apperrors.ErrCodeInvalidParams, "支付金额无效")

// CreateMomoPaymentUseCase 创建MoMo支付
//
// 两步Saga：
//  1. 创建 pending/pending 的在线支付订单（补偿：标记支付失败并取消）
//  2. 请求MoMo支付链接
//
// 积分抵扣、购物车清空、优惠券计数都等支付成功后由Reconciler处理
type CreateMomoPaymentUseCase struct {
	orderRepo  order.Repository
	tasks      outbox.Repository
	products   inventory.ProductRepository
	carts      cart.Store
	loyalty    *loyalty.Ledger
	gateway    payment.Gateway
	txManager  domain.TxManager
	dispatcher *effect.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewCreateMomoPaymentUseCase(
	orderRepo order.Repository,
	tasks outbox.Repository,
	products inventory.ProductRepository,
	carts cart.Store,
	loyaltyLedger *loyalty.Ledger,
	gateway payment.Gateway,
	txManager domain.TxManager,
	dispatcher *effect.Dispatcher,
	logger *zap.Logger,
) *CreateMomoPaymentUseCase {
	return &CreateMomoPaymentUseCase{
		orderRepo:  orderRepo,
		tasks:      tasks,
		products:   products,
		carts:      carts,
		loyalty:    loyaltyLedger,
		gateway:    gateway,
		txManager:  txManager,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateMomoPaymentRequest 创建支付请求
type CreateMomoPaymentRequest struct {
	UserID      uint
	PointsToUse int64
	Address     order.Address // 可为空
	Note        string
}

// CreateMomoPaymentResponse 支付跳转信息
type CreateMomoPaymentResponse struct {
	OrderID    uint            `json:"order_id"`
	OrderNo    string          `json:"order_no"`
	PayURL     string          `json:"pay_url"`
	Summary    pricing.Summary `json:"summary"`
	PointsUsed int64           `json:"points_used"`
}

func (uc *CreateMomoPaymentUseCase) Execute(ctx context.Context, req CreateMomoPaymentRequest) (*CreateMomoPaymentResponse, error) {
	c, err := uc.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}
	if err := orderapp.CheckAvailability(ctx, uc.products, c); err != nil {
		return nil, err
	}
	if c.TotalPrice <= 0 {
		return nil, ErrInvalidAmount
	}

	address, err := resolveAddress(req.Address)
	if err != nil {
		return nil, err
	}
	items, err := orderapp.ItemsFromCart(c)
	if err != nil {
		return nil, err
	}

	balance, err := uc.loyalty.Balance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	// 1积分 = 1000 VND，上限为扣除优惠券后的金额
	discount := c.Discount()
	points := loyalty.Redeemable(max(req.PointsToUse, 0), balance, c.TotalPrice-discount)
	pointUsed := points * loyalty.PointValue
	summary := pricing.ComputeSummary(c.TotalPrice, discount+pointUsed)
	if summary.Total <= 0 {
		return nil, ErrInvalidAmount
	}

	now := uc.now()
	o, err := order.NewOrder(order.GenerateOrderNo(now), order.Draft{
		UserID:        req.UserID,
		Items:         items,
		Summary:       summary,
		Discount:      discount,
		PointUsed:     pointUsed,
		PointEarned:   pricing.PointsEarnedOnline(summary.Total),
		PaymentMethod: order.PaymentMomo,
		PaymentStatus: order.PaymentPending,
		CouponID:      c.CouponID(),
		Address:       address,
		Note:          req.Note,
	}, now)
	if err != nil {
		return nil, err
	}

	var (
		session *payment.CreateResponse
		created bool
	)
	s := saga.NewSaga("momo_checkout", sagaTimeout, uc.logger)
	s.AddStep("创建订单",
		func(ctx context.Context) error {
			if err := uc.createOrder(ctx, o); err != nil {
				return err
			}
			created = true
			return nil
		},
		func(ctx context.Context) error { return uc.abandonOrder(ctx, o.ID) },
	)
	s.AddStep("请求支付链接",
		func(ctx context.Context) error {
			resp, err := uc.gateway.CreatePayment(ctx, payment.SessionRequest{
				OrderNo: o.OrderNo,
				Amount:  o.TotalPrice,
			})
			if err != nil {
				return err
			}
			session = resp
			return nil
		},
		nil,
	)

	if err := s.Execute(ctx); err != nil {
		if !created {
			return nil, err
		}
		// 订单已被补偿为取消，立即发布payment_failed事件
		uc.dispatcher.DispatchOrder(context.WithoutCancel(ctx), o.ID)
		if apperrors.HasCode(err, apperrors.ErrCodePaymentGateway) {
			return nil, err
		}
		return nil, apperrors.WithCause(payment.ErrPaymentGateway, err)
	}

	uc.dispatcher.DispatchOrder(ctx, o.ID)
	metrics.IncCounterVec(metrics.OrdersCreatedTotal, map[string]string{"payment_method": string(order.PaymentMomo)})
	uc.logger.Info("MoMo支付会话已创建",
		zap.String("order_no", o.OrderNo),
		zap.Int64("amount", o.TotalPrice),
		zap.Int64("points_used", points),
	)

	return &CreateMomoPaymentResponse{
		OrderID:    o.ID,
		OrderNo:    o.OrderNo,
		PayURL:     session.PayURL,
		Summary:    summary,
		PointsUsed: points,
	}, nil
}

func (uc *CreateMomoPaymentUseCase) createOrder(ctx context.Context, o *order.Order) error {
	return uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.orderRepo.Create(txCtx, o); err != nil {
			return err
		}
		event, err := effect.EventTask(o, effect.RoutingOrderCreated, "", o.CreatedAt)
		if err != nil {
			return err
		}
		return uc.tasks.Enqueue(txCtx, event)
	})
}

// abandonOrder 支付链接创建失败：支付失败并取消订单
func (uc *CreateMomoPaymentUseCase) abandonOrder(ctx context.Context, orderID uint) error {
	return uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		from := o.Status
		now := uc.now()
		o.MarkPaymentFailed("không tạo được phiên thanh toán", now)
		ok, err := uc.orderRepo.UpdateIfUnpaid(txCtx, o)
		if err != nil || !ok {
			return err
		}
		event, err := effect.EventTask(o, effect.RoutingOrderPaymentFailed, from, now)
		if err != nil {
			return err
		}
		return uc.tasks.Enqueue(txCtx, event)
	})
}

// resolveAddress 在线支付可以不填地址，此时记为N/A
func resolveAddress(a order.Address) (order.Address, error) {
	if a == (order.Address{}) {
		return order.Address{Street: placeholderAddress, District: placeholderAddress, City: placeholderAddress}, nil
	}
	if err := a.Validate(); err != nil {
		return order.Address{}, err
	}
	return a, nil
}
