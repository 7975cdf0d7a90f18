// Package metrics 基于Prometheus的指标收集
//
// 指标分三组：
//   - HTTP：请求总数、耗时、处理中请求数
//   - 购买流程：创建成功/失败总数、耗时、图书数量分布
//   - 事件分发：发布总数、订阅者执行结果与耗时、待处理事件数、消费连接状态、消息队列与熔断器
//
// # 使用示例
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	defer func() {
//	    metrics.ObserveHistogram(metrics.PurchaseCreationDuration, time.Since(start).Seconds())
//	}()
//
// # 命名规范
//
//  1. Counter以_total结尾
//  2. Histogram以单位结尾（_seconds）
//  3. 避免高基数标签：不要用customer_id、purchase_id作为标签
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板，如/api/v1/books/:id）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 购买流程指标

	// PurchasesCreatedTotal 购买创建成功总数
	PurchasesCreatedTotal prometheus.Counter

	// PurchasesFailedTotal 购买创建失败总数
	// 标签：reason（not_found/unsellable/invalid/forbidden/error）
	PurchasesFailedTotal *prometheus.CounterVec

	// PurchaseCreationDuration 购买创建耗时（请求线程内，不含订阅者）
	PurchaseCreationDuration prometheus.Histogram

	// PurchaseBooks 单笔购买的图书数量分布
	PurchaseBooks prometheus.Histogram

	// 事件分发指标

	// EventsPublishedTotal 事件发布总数
	// 标签：transport（memory/rabbitmq）、result（success/failure）
	EventsPublishedTotal *prometheus.CounterVec

	// SubscriberExecutionsTotal 订阅者执行总数
	// 标签：subscriber（sold_book_reconciler/invoice_assigner）、result（success/failure/skipped）
	SubscriberExecutionsTotal *prometheus.CounterVec

	// SubscriberDuration 订阅者执行耗时
	SubscriberDuration *prometheus.HistogramVec

	// SubscriberQueueDepth 订阅者待处理事件数（内存传输）
	SubscriberQueueDepth *prometheus.GaugeVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签：exchange、routing_key
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数
	// 标签：queue、result（ack/nack）
	MessagesConsumedTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// ConsumerUp 订阅者消费连接是否可用（1=可用, 0=断开重连中）
	ConsumerUp *prometheus.GaugeVec
)

// InitMetrics 初始化并注册所有指标，重复调用无副作用
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	// HTTP请求指标
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

	// 购买流程指标
	PurchasesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_created_total",
			Help: "购买创建成功总数",
		},
	)

	PurchasesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_failed_total",
			Help: "购买创建失败总数",
		},
		[]string{"reason"},
	)

	PurchaseCreationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "purchase_creation_duration_seconds",
			Help: "购买创建耗时（秒）",
			// 一次事务内的批量读取+写入
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	PurchaseBooks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "purchase_books",
			Help:    "单笔购买的图书数量",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		},
	)

	// 事件分发指标
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "购买事件发布总数",
		},
		[]string{"transport", "result"},
	)

	SubscriberExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriber_executions_total",
			Help: "订阅者执行总数",
		},
		[]string{"subscriber", "result"},
	)

	SubscriberDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subscriber_duration_seconds",
			Help:    "订阅者执行耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"subscriber"},
	)

	SubscriberQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriber_queue_depth",
			Help: "订阅者待处理事件数",
		},
		[]string{"subscriber"},
	)

	// 消息队列指标
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

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）",
		},
		[]string{"name"},
	)

	ConsumerUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "consumer_up",
			Help: "订阅者消费连接是否可用（1=可用, 0=断开）",
		},
		[]string{"subscriber"},
	)
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// SubscriberResult 记录一次订阅者执行
func SubscriberResult(subscriber, result string, seconds float64) {
	InitMetrics()
	SubscriberExecutionsTotal.WithLabelValues(subscriber, result).Inc()
	SubscriberDuration.WithLabelValues(subscriber).Observe(seconds)
}
