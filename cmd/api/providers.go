package main

import (
	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/dashboard"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/pkg/cache"
	"github.com/xiebiao/plantshop/pkg/jwt"
	"github.com/xiebiao/plantshop/pkg/mq"
)

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideEventPublisher MQ未启用时事件只记录日志
func provideEventPublisher(cfg *config.Config, logger *zap.Logger) (mq.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return mq.NopPublisher{Logger: logger}, func() {}, nil
	}
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic", logger)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() { publisher.Close() }, nil
}

// provideSummaryCache 仪表盘缓存使用系统时钟
func provideSummaryCache(cfg *config.Config) *dashboard.SummaryCache {
	return dashboard.NewSummaryCache(cfg, cache.SystemClock{})
}
