// Package metrics 提供基于Prometheus的业务与HTTP指标
//
// 指标分组：
//   - HTTP：请求数、耗时、并发数（由middleware.Metrics采集）
//   - 订单：创建数、状态流转、超时取消
//   - 支付：MoMo回调结果（ipn/return × paid/failed/duplicate/invalid_signature/not_found）
//   - 副作用：outbox任务执行结果、库存调整
//   - 基础组件：熔断器、Saga、消息队列、仪表盘缓存
//
// 必须在启动时调用一次InitMetrics。未初始化时所有辅助函数为空操作，
// 单元测试不需要注册全局Registry。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 标记是否已初始化（防止重复注册）
	initialized bool

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时，标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// OrdersCreatedTotal 订单创建数，标签：payment_method（cod/momo）
	OrdersCreatedTotal *prometheus.CounterVec

	// OrderTransitionsTotal 订单状态流转次数，标签：from、to
	OrderTransitionsTotal *prometheus.CounterVec

	// OrdersExpiredTotal 支付超时自动取消的订单数
	OrdersExpiredTotal prometheus.Counter

	// PaymentCallbacksTotal 支付回调次数，标签：source（ipn/return）、result
	PaymentCallbacksTotal *prometheus.CounterVec

	// EffectTasksTotal 订单副作用任务执行次数，标签：kind、result（applied/noop/failed）
	EffectTasksTotal *prometheus.CounterVec

	// StockAdjustmentsTotal 库存调整次数，标签：type（import/export/adjustment/sale/deduct/restore）、outcome
	StockAdjustmentsTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN），标签：name
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求数，标签：name、result（success/failure/rejected）
	CircuitBreakerRequests *prometheus.CounterVec

	// SagaExecutionsTotal Saga执行次数，标签：name、result
	SagaExecutionsTotal *prometheus.CounterVec

	// SagaCompensationsTotal Saga补偿执行次数
	SagaCompensationsTotal prometheus.Counter

	// MessagesPublishedTotal 消息发布数，标签：exchange、routing_key
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费数，标签：queue、result
	MessagesConsumedTotal *prometheus.CounterVec

	// CacheLookupsTotal 缓存查询次数，标签：cache、result（hit/miss）
	CacheLookupsTotal *prometheus.CounterVec
)

// InitMetrics 初始化并注册所有指标到默认Registry
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantshop_orders_created_total",
			Help: "订单创建总数",
		},
		[]string{"payment_method"},
	)

	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantshop_order_transitions_total",
			Help: "订单状态流转次数",
		},
		[]string{"from", "to"},
	)

	OrdersExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantshop_orders_expired_total",
			Help: "支付超时自动取消的订单数",
		},
	)

	PaymentCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantshop_payment_callbacks_total",
			Help: "支付回调次数",
		},
		[]string{"source", "result"},
	)

	EffectTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantshop_effect_tasks_total",
			Help: "订单副作用任务执行次数",
		},
		[]string{"kind", "result"},
	)

	StockAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantshop_stock_adjustments_total",
			Help: "库存调整次数",
		},
		[]string{"type", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "熔断器请求总数",
		},
		[]string{"name", "result"},
	)

	SagaExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saga_executions_total",
			Help: "Saga执行总数",
		},
		[]string{"name", "result"},
	)

	SagaCompensationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saga_compensations_total",
			Help: "Saga补偿执行总数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key"},
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_consumed_total",
			Help: "消息消费总数",
		},
		[]string{"queue", "result"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantshop_cache_lookups_total",
			Help: "进程内缓存查询次数",
		},
		[]string{"cache", "result"},
	)
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}

// RecordTransition 记录一次订单状态流转
func RecordTransition(from, to string) {
	IncCounterVec(OrderTransitionsTotal, map[string]string{"from": from, "to": to})
}

// RecordPaymentCallback 记录一次支付回调结果
func RecordPaymentCallback(source, result string) {
	IncCounterVec(PaymentCallbacksTotal, map[string]string{"source": source, "result": result})
}

// RecordEffect 记录一次副作用任务执行
func RecordEffect(kind, result string) {
	IncCounterVec(EffectTasksTotal, map[string]string{"kind": kind, "result": result})
}

// RecordStockAdjustment 记录一次库存调整
func RecordStockAdjustment(changeType, outcome string) {
	IncCounterVec(StockAdjustmentsTotal, map[string]string{"type": changeType, "outcome": outcome})
}

// RecordCacheLookup 记录缓存命中情况
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	IncCounterVec(CacheLookupsTotal, map[string]string{"cache": cache, "result": result})
}
