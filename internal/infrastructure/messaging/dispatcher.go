// Package messaging 购买事件分发
//
// 每个订阅者拥有独立的队列和独立的工作协程：
//   - 发布只负责入队，不等待任何订阅者
//   - 一个订阅者失败或panic只记录日志和指标，不影响其他订阅者
//   - 订阅者之间不保证先后顺序
//
// 两种传输方式：
//   - memory：进程内无界FIFO队列（默认）
//   - rabbitmq：Topic Exchange，每个订阅者一个持久化队列，至少一次投递
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	"github.com/xiebiao/mercadolivro/pkg/metrics"
	"github.com/xiebiao/mercadolivro/pkg/tracing"
)

// 传输方式
const (
	TransportMemory   = "memory"
	TransportRabbitMQ = "rabbitmq"
)

var (
	// ErrDispatcherClosed 分发器已关闭
	ErrDispatcherClosed = errors.New("事件分发器已关闭")

	// ErrAlreadyStarted 分发器启动后不能再注册订阅者
	ErrAlreadyStarted = errors.New("事件分发器已启动")

	// ErrDuplicateSubscriber 订阅者名称重复
	ErrDuplicateSubscriber = errors.New("订阅者名称重复")

	// ErrNotStarted 分发器尚未启动
	ErrNotStarted = errors.New("事件分发器未启动")

	// ErrConsumerDown 有订阅者的消费连接已断开（正在重连）
	ErrConsumerDown = errors.New("订阅者消费连接不可用")
)

// Handler 订阅者处理函数
type Handler func(ctx context.Context, event purchase.CommittedEvent) error

// Dispatcher 事件分发器
//
// 生命周期：Subscribe（可多次）→ Start → Publish（任意次）→ Shutdown
type Dispatcher interface {
	purchase.Publisher

	// Subscribe 注册订阅者，name同时作为日志、指标标签和队列名后缀
	Subscribe(name string, handler Handler) error

	// Start 启动所有订阅者的工作协程，ctx取消时工作协程立即退出
	Start(ctx context.Context) error

	// Shutdown 停止接收新事件并等待在途事件处理完（或ctx到期）
	Shutdown(ctx context.Context) error

	// Ping 可以正常接收事件时返回nil，供健康检查使用
	Ping(ctx context.Context) error
}

// invoker 执行订阅者：panic恢复、日志、指标、追踪
type invoker struct {
	logger *zap.Logger
}

func (iv invoker) invoke(ctx context.Context, name string, handler Handler, event purchase.CommittedEvent) (err error) {
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "subscriber."+name)
	span.SetAttributes(
		attribute.Int64("purchase_id", int64(event.Purchase.ID)),
		attribute.Int("books", len(event.Purchase.Books)),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("订阅者panic: %v", r)
		}

		result := "success"
		if err != nil {
			result = "failure"
			tracing.RecordError(span, err)
			iv.logger.Error("订阅者执行失败",
				zap.String("subscriber", name),
				zap.Uint("purchase_id", event.Purchase.ID),
				zap.Error(err),
			)
		}
		span.End()
		metrics.SubscriberResult(name, result, time.Since(start).Seconds())
	}()

	return handler(ctx, event)
}
