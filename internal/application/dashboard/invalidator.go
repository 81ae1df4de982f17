package dashboard

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
)

// EventSource 订单事件来源（RabbitMQ消费者）
type EventSource interface {
	Consume(ctx context.Context, handler func(routingKey string, body []byte) error) error
}

// Invalidator 收到订单事件后清空仪表盘缓存
// 每个实例用独占队列各自接收一份事件
type Invalidator struct {
	summary *SummaryUseCase
	logger  *zap.Logger
}

func NewInvalidator(summary *SummaryUseCase, logger *zap.Logger) *Invalidator {
	return &Invalidator{summary: summary, logger: logger}
}

// Handle 处理一条消息
// 消息体解析失败也照样清缓存，不重新入队
func (i *Invalidator) Handle(routingKey string, body []byte) error {
	if !strings.HasPrefix(routingKey, "order.") {
		return nil
	}

	var event effect.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		i.logger.Warn("订单事件解析失败", zap.String("routing_key", routingKey), zap.Error(err))
	}

	i.summary.Invalidate()
	i.logger.Debug("仪表盘缓存已失效",
		zap.String("routing_key", routingKey),
		zap.String("order_no", event.OrderNo),
	)
	return nil
}

// Run 阻塞消费直到ctx取消
func (i *Invalidator) Run(ctx context.Context, source EventSource) {
	if err := source.Consume(ctx, i.Handle); err != nil {
		i.logger.Error("仪表盘缓存失效消费者退出", zap.Error(err))
	}
}

// RoutingKeys 需要绑定的路由键
func RoutingKeys() []string {
	return effect.OrderRoutingKeys
}
