package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
	"github.com/xiebiao/mercadolivro/pkg/metrics"
	"github.com/xiebiao/mercadolivro/pkg/mq"
)

// RabbitOptions RabbitMQ分发器配置
type RabbitOptions struct {
	URL          string
	Exchange     string
	ExchangeType string
	Publisher    mq.PublisherOptions
}

// brokerPublisher *mq.Publisher
type brokerPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Healthy() error
	Close() error
}

// brokerConsumer *mq.Consumer
type brokerConsumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error
	Close() error
}

// consumerDialer 为队列建立新的消费者连接
type consumerDialer func(queue string) (brokerConsumer, error)

// RabbitDispatcher 基于RabbitMQ的事件分发器
//
// 拓扑：
//
//	Exchange(topic) ──purchase.committed──▶ <exchange>.sold_book_reconciler
//	                └─purchase.committed──▶ <exchange>.invoice_assigner
//
// 每个订阅者独立队列、独立消费协程；处理失败Nack且不重新入队。
// 消费连接断开后按指数退避重连，断开期间Ping返回ErrConsumerDown。
type RabbitDispatcher struct {
	opts       RabbitOptions
	publisher  brokerPublisher
	dial       consumerDialer
	newBackOff func() backoff.BackOff
	invoker    invoker
	logger     *zap.Logger

	mu        sync.Mutex
	subs      map[string]Handler
	order     []string
	consumers map[string]brokerConsumer // nil表示该订阅者当前没有可用连接
	group     *errgroup.Group
	cancel    context.CancelFunc
	closed    bool
}

// NewRabbitDispatcher 连接Broker并创建发布者
func NewRabbitDispatcher(opts RabbitOptions, logger *zap.Logger) (*RabbitDispatcher, error) {
	logger = logger.Named("dispatcher")
	opts.Publisher.ExchangeType = opts.ExchangeType
	opts.Publisher.Logger = logger

	publisher, err := mq.NewPublisher(opts.URL, opts.Exchange, opts.Publisher)
	if err != nil {
		return nil, err
	}

	dial := func(queue string) (brokerConsumer, error) {
		c, err := mq.NewConsumer(opts.URL, opts.Exchange, opts.ExchangeType, queue, []string{purchase.EventCommitted}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return newRabbitDispatcher(opts, publisher, dial, logger), nil
}

func newRabbitDispatcher(opts RabbitOptions, publisher brokerPublisher, dial consumerDialer, logger *zap.Logger) *RabbitDispatcher {
	metrics.InitMetrics()
	return &RabbitDispatcher{
		opts:       opts,
		publisher:  publisher,
		dial:       dial,
		newBackOff: redialBackOff,
		invoker:    invoker{logger: logger},
		logger:     logger,
		subs:       make(map[string]Handler),
	}
}

// redialBackOff 0.5s起步、最长30s间隔，不限总时长
func redialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// QueueName 订阅者对应的队列名
func QueueName(exchange, subscriber string) string {
	return exchange + "." + subscriber
}

// Subscribe 注册订阅者（必须在Start之前）
func (d *RabbitDispatcher) Subscribe(name string, handler Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.group != nil {
		return ErrAlreadyStarted
	}
	if _, ok := d.subs[name]; ok {
		return ErrDuplicateSubscriber
	}
	d.subs[name] = handler
	d.order = append(d.order, name)
	return nil
}

// Start 为每个订阅者声明队列并启动消费协程
func (d *RabbitDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	if d.group != nil {
		return ErrAlreadyStarted
	}

	// 1. 为每个订阅者创建消费者（任一失败则全部关闭）
	consumers := make(map[string]brokerConsumer, len(d.order))
	for _, name := range d.order {
		c, err := d.dial(QueueName(d.opts.Exchange, name))
		if err != nil {
			for _, opened := range consumers {
				_ = opened.Close()
			}
			return err
		}
		consumers[name] = c
	}

	// 2. 启动消费协程
	runCtx, cancel := context.WithCancel(ctx)
	group := &errgroup.Group{}
	for _, name := range d.order {
		consumer, handler, name := consumers[name], d.subs[name], name
		consumerUp(name, true)
		group.Go(func() error {
			d.consume(runCtx, name, handler, consumer)
			return nil
		})
	}

	d.consumers = consumers
	d.group = group
	d.cancel = cancel
	d.logger.Info("RabbitMQ事件分发器已启动",
		zap.String("exchange", d.opts.Exchange),
		zap.Strings("subscribers", d.order),
	)
	return nil
}

// consume 持续消费直到ctx取消
// Channel或连接被关闭时标记该订阅者不可用，重连成功后继续消费
func (d *RabbitDispatcher) consume(ctx context.Context, name string, handler Handler, consumer brokerConsumer) {
	deliver := func(ctx context.Context, body []byte) error {
		event, err := decodeEvent(body)
		if err != nil {
			d.logger.Error("丢弃无法解析的消息", zap.String("subscriber", name), zap.Error(err))
			return err
		}
		return d.invoker.invoke(ctx, name, handler, event)
	}

	for {
		err := consumer.Consume(ctx, deliver)
		_ = consumer.Close()
		d.setConsumer(name, nil)
		if ctx.Err() != nil {
			return
		}
		d.logger.Error("消费者断开，开始重连", zap.String("subscriber", name), zap.Error(err))

		consumer, err = d.redial(ctx, name)
		if err != nil {
			return
		}
		d.setConsumer(name, consumer)
		d.logger.Info("消费者已重连", zap.String("subscriber", name))
	}
}

// redial 按退避策略重建消费者，只在ctx取消时返回错误
func (d *RabbitDispatcher) redial(ctx context.Context, name string) (brokerConsumer, error) {
	queue := QueueName(d.opts.Exchange, name)

	var consumer brokerConsumer
	err := backoff.RetryNotify(
		func() error {
			c, err := d.dial(queue)
			if err != nil {
				return err
			}
			consumer = c
			return nil
		},
		backoff.WithContext(d.newBackOff(), ctx),
		func(err error, wait time.Duration) {
			d.logger.Warn("消费者重连失败",
				zap.String("subscriber", name),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
		},
	)
	if err != nil {
		return nil, err
	}
	return consumer, nil
}

func (d *RabbitDispatcher) setConsumer(name string, c brokerConsumer) {
	d.mu.Lock()
	d.consumers[name] = c
	d.mu.Unlock()
	consumerUp(name, c != nil)
}

func consumerUp(name string, up bool) {
	value := 0.0
	if up {
		value = 1
	}
	metrics.SetGaugeVec(metrics.ConsumerUp, map[string]string{"subscriber": name}, value)
}

// Publish 发布到Exchange，Broker确认写入后返回，不等待订阅者
// Broker侧失败包装为ErrCodeBrokerError
func (d *RabbitDispatcher) Publish(ctx context.Context, event purchase.CommittedEvent) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		metrics.EventsPublishedTotal.WithLabelValues(TransportRabbitMQ, "failure").Inc()
		return ErrDispatcherClosed
	}

	if err := d.publisher.Publish(ctx, purchase.EventCommitted, toMessage(event)); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(TransportRabbitMQ, "failure").Inc()
		return apperrors.WrapCode(err, apperrors.ErrCodeBrokerError, "发布购买事件失败")
	}

	metrics.EventsPublishedTotal.WithLabelValues(TransportRabbitMQ, "success").Inc()
	return nil
}

// Ping 已启动、未关闭、发布者可用（连接正常、熔断器未打开）且所有订阅者都在消费
func (d *RabbitDispatcher) Ping(_ context.Context) error {
	d.mu.Lock()
	closed, started := d.closed, d.group != nil
	var down []string
	for _, name := range d.order {
		if started && d.consumers[name] == nil {
			down = append(down, name)
		}
	}
	d.mu.Unlock()

	switch {
	case closed:
		return ErrDispatcherClosed
	case !started:
		return ErrNotStarted
	}
	if err := d.publisher.Healthy(); err != nil {
		return err
	}
	if len(down) > 0 {
		return fmt.Errorf("%w: %s", ErrConsumerDown, strings.Join(down, ", "))
	}
	return nil
}

// Shutdown 停止消费并关闭连接
// 未确认的消息留在队列中，下次启动后重新投递
func (d *RabbitDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	group, cancel := d.group, d.cancel
	d.mu.Unlock()

	var waitErr error
	if cancel != nil {
		cancel()
		done := make(chan struct{})
		go func() {
			_ = group.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
	}

	// 消费协程退出时已关闭各自的连接，超时未退出的在这里强制关闭
	errs := []error{waitErr}
	d.mu.Lock()
	for _, c := range d.consumers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	d.mu.Unlock()
	errs = append(errs, d.publisher.Close())

	d.logger.Info("RabbitMQ事件分发器已关闭")
	return errors.Join(errs...)
}
