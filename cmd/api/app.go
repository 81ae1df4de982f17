package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/dashboard"
	"github.com/xiebiao/plantshop/internal/application/effect"
	apporder "github.com/xiebiao/plantshop/internal/application/order"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/infrastructure/grpcserver"
	"github.com/xiebiao/plantshop/pkg/mq"
)

// App 进程内所有长期运行的组件
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Engine       *gin.Engine
	GRPC         *grpcserver.Server
	Relay        *effect.Relay
	ExpiryWorker *apporder.ExpiryWorker
	Invalidator  *dashboard.Invalidator
}

// Run 启动HTTP、gRPC健康检查与后台任务，阻塞到ctx取消后优雅关闭
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Engine,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	bgCtx, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	background := func(name string, run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(bgCtx)
			a.Logger.Info("后台任务已退出", zap.String("task", name))
		}()
	}

	// 启动时先重放一次上次未完成的副作用任务
	background("effect_relay", func(ctx context.Context) {
		a.Relay.ReplayOnce(ctx)
		a.Relay.Run(ctx)
	})
	background("payment_expiry", a.ExpiryWorker.Run)
	if consumer := a.eventConsumer(); consumer != nil {
		background("dashboard_invalidator", func(ctx context.Context) {
			defer consumer.Close()
			a.Invalidator.Run(ctx, consumer)
		})
	}

	errCh := make(chan error, 2)
	if a.GRPC.Enabled() {
		go func() {
			if err := a.GRPC.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("gRPC服务异常退出: %w", err)
			}
		}()
	}
	go func() {
		a.Logger.Info("HTTP服务已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP服务异常退出: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("收到退出信号，开始关闭服务")
	case runErr = <-errCh:
		a.Logger.Error("服务异常", zap.Error(runErr))
	}

	// 先摘除健康状态，再停止接收请求
	a.GRPC.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("HTTP服务关闭超时", zap.Error(err))
	}

	stopBackground()
	wg.Wait()
	return runErr
}

// eventConsumer MQ启用时为本实例创建独占队列；失败只影响缓存及时性
func (a *App) eventConsumer() *mq.Consumer {
	if !a.Config.MQ.Enabled {
		return nil
	}
	consumer, err := mq.NewConsumer(a.Config.MQ.URL, a.Config.MQ.Exchange, "topic", "",
		dashboard.RoutingKeys(), true, a.Logger)
	if err != nil {
		a.Logger.Warn("创建订单事件消费者失败，仪表盘缓存只按TTL过期", zap.Error(err))
		return nil
	}
	return consumer
}
