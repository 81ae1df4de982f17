package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/pkg/logger"
	"github.com/xiebiao/plantshop/pkg/metrics"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

// @title                       Plantshop API
// @version                     1.0
// @description                 植物商店后端：订单状态机、MoMo支付对账、库存流水与积分
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// 1. 加载配置（含.env）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 日志
	zlog, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	// 3. 指标与链路追踪
	metrics.InitMetrics()
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			zlog.Warn("初始化链路追踪失败，继续以无追踪模式运行", zap.Error(err))
		} else {
			defer shutdown(context.Background())
		}
	}

	// 4. 依赖注入
	app, cleanup, err := InitializeApp(cfg, zlog)
	if err != nil {
		zlog.Fatal("初始化应用失败", zap.Error(err))
	}
	defer cleanup()

	zlog.Info("服务启动",
		zap.String("app", cfg.App.Name),
		zap.Int("http_port", cfg.Server.Port),
		zap.Int("grpc_port", cfg.GRPC.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.Bool("mq_enabled", cfg.MQ.Enabled),
	)

	// 5. 运行直到收到SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		zlog.Error("服务异常退出", zap.Error(err))
		os.Exit(1)
	}
	zlog.Info("服务已关闭")
}
