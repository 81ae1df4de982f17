package effect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
)

// Relay 定时重放待执行的副作用任务
type Relay struct {
	tasks      outbox.Repository
	dispatcher *Dispatcher
	interval   time.Duration
	batchSize  int
	logger     *zap.Logger
}

// NewRelay 创建重放器
func NewRelay(tasks outbox.Repository, dispatcher *Dispatcher, cfg *config.Config, logger *zap.Logger) *Relay {
	batch := cfg.Effect.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Relay{
		tasks:      tasks,
		dispatcher: dispatcher,
		interval:   cfg.Effect.ReplayInterval,
		batchSize:  batch,
		logger:     logger,
	}
}

// ReplayOnce 执行一批待执行任务，返回本批结果
func (r *Relay) ReplayOnce(ctx context.Context) []Outcome {
	pending, err := r.tasks.Pending(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("读取待执行任务失败", zap.Error(err))
		return nil
	}

	outcomes := make([]Outcome, 0, len(pending))
	for _, t := range pending {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, r.dispatcher.Apply(ctx, t))
	}
	if len(outcomes) > 0 {
		r.logger.Info("副作用任务重放完成", zap.Int("count", len(outcomes)))
	}
	return outcomes
}

// Run 阻塞运行直到ctx取消
func (r *Relay) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReplayOnce(ctx)
		}
	}
}
