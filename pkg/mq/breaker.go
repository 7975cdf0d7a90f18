package mq

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/pkg/metrics"
)

// 熔断参数
const (
	breakerMaxRequests      = 1 // 半开状态允许的探测请求数
	breakerConsecutiveFails = 5 // 连续失败多少次后打开
	breakerInterval         = 0 // CLOSED状态不周期性清零计数
)

// NewBreaker 创建熔断器
//
// 状态流转：
//
//	CLOSED ──连续失败5次──▶ OPEN ──open时间到──▶ HALF_OPEN
//	HALF_OPEN ──探测成功──▶ CLOSED
//	HALF_OPEN ──探测失败──▶ OPEN
//
// 状态变化写入circuit_breaker_state指标并记录日志
func NewBreaker(name string, open time.Duration, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.InitMetrics()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     open,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("熔断器状态变化",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
}
