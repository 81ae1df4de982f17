// Package saga 实现通用的Saga编排
//
// 将一段跨资源的流程拆成多个本地步骤，每个步骤带补偿操作；
// 某步失败时按逆序执行已完成步骤的补偿。
//
// 在线支付下单即是一个两步Saga：
//
//	s := saga.NewSaga("momo_checkout", 30*time.Second, logger)
//	s.AddStep("创建订单", createOrder, cancelOrder)
//	s.AddStep("请求支付链接", requestPayURL, nil)
//	err := s.Execute(ctx)
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/pkg/metrics"
)

// Step 表示Saga中的一个步骤
// Action和Compensate都必须支持幂等（允许重试）
type Step struct {
	Name       string                          // 步骤名称（用于日志）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作，可为nil
}

// Saga 一次Saga执行
// 非并发安全：每次业务调用创建新实例
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSaga 创建Saga
// timeout<=0 表示不设整体超时；logger为nil时使用zap.NewNop()
func NewSaga(name string, timeout time.Duration, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		name:    name,
		steps:   make([]Step, 0),
		timeout: timeout,
		logger:  logger.With(zap.String("saga", name)),
	}
}

// AddStep 添加一个步骤（按添加顺序执行，按逆序补偿）
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行Saga
// 返回的错误包装了失败步骤的原始错误，调用方可用errors.Is/As判断
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		select {
		case <-ctx.Done():
			s.compensate(context.WithoutCancel(ctx))
			s.record("timeout")
			return fmt.Errorf("saga超时: %w", ctx.Err())
		default:
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				s.logger.Warn("Saga步骤失败，开始补偿",
					zap.Int("step", i),
					zap.String("step_name", step.Name),
					zap.Error(err),
				)
				// 补偿使用脱离取消的Context，避免补偿也因超时中断
				s.compensate(context.WithoutCancel(ctx))
				if errors.Is(err, context.DeadlineExceeded) {
					s.record("timeout")
				} else {
					s.record("compensated")
				}
				return fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err)
			}
		}

		s.executed = append(s.executed, step)
	}

	s.record("success")
	return nil
}

// compensate 逆序补偿；某个补偿失败时记录日志并继续
func (s *Saga) compensate(ctx context.Context) {
	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}
		metrics.IncCounter(metrics.SagaCompensationsTotal)
		if err := step.Compensate(ctx); err != nil {
			// 需要人工介入
			s.logger.Error("Saga补偿失败",
				zap.String("step_name", step.Name),
				zap.Error(err),
			)
		}
	}
	s.executed = nil
}

func (s *Saga) record(result string) {
	metrics.IncCounterVec(metrics.SagaExecutionsTotal, map[string]string{"name": s.name, "result": result})
}
