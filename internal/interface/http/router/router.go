// Package router 注册HTTP路由
package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xiebiao/plantshop/docs"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/interface/http/handler"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User      *handler.UserHandler
	Cart      *handler.CartHandler
	Order     *handler.OrderHandler
	Payment   *handler.PaymentHandler
	Inventory *handler.InventoryHandler
	Dashboard *handler.DashboardHandler
	Coupon    *handler.CouponHandler
}

// New 创建并配置Gin引擎
//
// 中间件顺序：Recovery → RequestLogger → Metrics → CORS → 路由组上的认证
func New(cfg *config.Config, logger *zap.Logger, h *Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.Metrics(),
		middleware.CORS(allowOrigins(cfg)),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// 生产环境不开放接口文档
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/logout", auth.RequireAuth(), h.User.Logout)
	}

	// MoMo回跳和IPN由网关或浏览器发起，不带Token
	momo := v1.Group("/payments/momo")
	{
		momo.GET("/return", h.Payment.Return)
		momo.POST("/ipn", h.Payment.IPN)
		momo.POST("", auth.RequireAuth(), h.Payment.CreateMomo)
	}

	authorized := v1.Group("")
	authorized.Use(auth.RequireAuth())
	{
		authorized.GET("/profile", h.User.GetProfile)
		authorized.PUT("/profile", h.User.UpdateProfile)

		cart := authorized.Group("/cart")
		{
			cart.GET("", h.Cart.Get)
			cart.POST("/items", h.Cart.AddItem)
			cart.PUT("/items", h.Cart.UpdateItem)
			cart.POST("/coupon", h.Cart.ApplyCoupon)
			cart.DELETE("/coupon", h.Cart.RemoveCoupon)
		}

		orders := authorized.Group("/orders")
		{
			orders.POST("", h.Order.Checkout)
			orders.GET("", h.Order.ListMine)
			orders.GET("/:id", h.Order.Detail)
			orders.POST("/:id/cancel", h.Order.Cancel)
			orders.GET("/:id/invoice", h.Order.Invoice)
		}
	}

	admin := v1.Group("/admin")
	admin.Use(auth.RequireAuth(), auth.RequireAdmin())
	{
		admin.GET("/dashboard", h.Dashboard.Summary)

		orders := admin.Group("/orders")
		{
			orders.GET("", h.Order.AdminList)
			orders.POST("/expire", h.Order.Expire)
			orders.GET("/:id", h.Order.AdminDetail)
			orders.PUT("/:id/status", h.Order.SetStatus)
			orders.POST("/:id/sale", h.Order.RecordSale)
		}

		inventory := admin.Group("/inventory")
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/logs", h.Inventory.Logs)
			inventory.GET("/logs/export", h.Inventory.ExportLogs)
			inventory.GET("/:id", h.Inventory.Detail)
			inventory.POST("/:id/import", h.Inventory.Import)
			inventory.POST("/:id/export", h.Inventory.Export)
			inventory.POST("/:id/adjust", h.Inventory.Adjust)
		}

		coupons := admin.Group("/coupons")
		{
			coupons.GET("", h.Coupon.List)
			coupons.POST("", h.Coupon.Create)
			coupons.PUT("/:id/toggle", h.Coupon.Toggle)
			coupons.DELETE("/:id", h.Coupon.Delete)
		}
	}

	return r
}

// allowOrigins 前端站点地址（去掉末尾的/）
func allowOrigins(cfg *config.Config) []string {
	origin := strings.TrimRight(cfg.App.FrontendURL, "/")
	if origin == "" {
		return []string{"*"}
	}
	return []string{origin}
}
