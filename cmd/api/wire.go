//go:build wireinject
// +build wireinject

// Wire依赖注入配置，修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	appcart "github.com/xiebiao/plantshop/internal/application/cart"
	appcoupon "github.com/xiebiao/plantshop/internal/application/coupon"
	"github.com/xiebiao/plantshop/internal/application/dashboard"
	"github.com/xiebiao/plantshop/internal/application/effect"
	appinventory "github.com/xiebiao/plantshop/internal/application/inventory"
	apporder "github.com/xiebiao/plantshop/internal/application/order"
	apppayment "github.com/xiebiao/plantshop/internal/application/payment"
	"github.com/xiebiao/plantshop/internal/application/report"
	appuser "github.com/xiebiao/plantshop/internal/application/user"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/internal/domain/user"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/infrastructure/grpcserver"
	"github.com/xiebiao/plantshop/internal/infrastructure/momo"
	"github.com/xiebiao/plantshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/plantshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/plantshop/internal/interface/http/handler"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、MoMo网关、消息发布
var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	redis.NewClient,
	momo.NewSigner,
	momo.NewClient,
	wire.Bind(new(payment.Gateway), new(*momo.Client)),
	provideEventPublisher,
	provideJWTManager,
	grpcserver.New,
)

// repositorySet 仓储与存储
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBalanceStore,
	mysql.NewOrderRepository,
	mysql.NewProductRepository,
	mysql.NewInventoryLogRepository,
	mysql.NewCouponRepository,
	mysql.NewOutboxRepository,
	mysql.NewTxManager,
	wire.Bind(new(domain.TxManager), new(*mysql.TxManager)),
	redis.NewCartStore,
	wire.Bind(new(cart.Store), new(*redis.CartStore)),
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	loyalty.NewLedger,
	inventory.NewLedger,
	coupon.NewCounter,
)

// applicationSet 应用层用例与后台任务
var applicationSet = wire.NewSet(
	effect.NewDispatcher,
	effect.NewRelay,

	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewGetProfileUseCase,
	appuser.NewUpdateProfileUseCase,

	appcart.NewGetCartUseCase,
	appcart.NewAddItemUseCase,
	appcart.NewUpdateItemUseCase,
	appcart.NewApplyCouponUseCase,
	appcart.NewRemoveCouponUseCase,

	apporder.NewCheckoutUseCase,
	apporder.NewListUserOrdersUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewCancelOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewSetStatusUseCase,
	apporder.NewRecordSaleUseCase,
	apporder.NewExpireStalePaymentsUseCase,
	apporder.NewExpiryWorker,
	report.NewInvoiceUseCase,

	apppayment.NewReconciler,
	apppayment.NewCreateMomoPaymentUseCase,
	apppayment.NewReturnUseCase,
	apppayment.NewIPNUseCase,

	appinventory.NewListStockUseCase,
	appinventory.NewGetStockUseCase,
	appinventory.NewMoveStockUseCase,
	appinventory.NewListLogsUseCase,
	appinventory.NewExportLogsUseCase,

	appcoupon.NewListCouponsUseCase,
	appcoupon.NewCreateCouponUseCase,
	appcoupon.NewToggleCouponUseCase,
	appcoupon.NewDeleteCouponUseCase,

	provideSummaryCache,
	dashboard.NewSummaryUseCase,
	dashboard.NewInvalidator,
)

// interfaceSet HTTP处理器、中间件与路由
var interfaceSet = wire.NewSet(
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewCartHandler,
	handler.NewOrderHandler,
	handler.NewPaymentHandler,
	handler.NewInventoryHandler,
	handler.NewDashboardHandler,
	handler.NewCouponHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// InitializeApp 组装整个应用
// 返回的cleanup关闭消息发布者
func InitializeApp(cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
