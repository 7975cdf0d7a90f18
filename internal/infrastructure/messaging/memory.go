package messaging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	"github.com/xiebiao/mercadolivro/pkg/metrics"
)

// MemoryDispatcher 进程内事件分发器
// 每个订阅者一个无界FIFO队列和一个工作协程，发布永不阻塞
type MemoryDispatcher struct {
	mu      sync.Mutex
	subs    []*memorySubscription
	started bool
	closed  bool
	group   *errgroup.Group
	invoker invoker
	logger  *zap.Logger
}

// NewMemoryDispatcher 创建内存分发器
func NewMemoryDispatcher(logger *zap.Logger) *MemoryDispatcher {
	metrics.InitMetrics()
	logger = logger.Named("dispatcher")
	return &MemoryDispatcher{
		invoker: invoker{logger: logger},
		logger:  logger,
	}
}

// Subscribe 注册订阅者（必须在Start之前）
func (d *MemoryDispatcher) Subscribe(name string, handler Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}
	for _, s := range d.subs {
		if s.name == name {
			return ErrDuplicateSubscriber
		}
	}

	d.subs = append(d.subs, newMemorySubscription(name, handler))
	return nil
}

// Start 为每个订阅者启动一个工作协程
func (d *MemoryDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	if d.started {
		return ErrAlreadyStarted
	}
	d.started = true

	d.group = &errgroup.Group{}
	for _, s := range d.subs {
		d.group.Go(func() error {
			d.run(ctx, s)
			return nil
		})
	}

	d.logger.Info("内存事件分发器已启动", zap.Int("subscribers", len(d.subs)))
	return nil
}

// Publish 把事件放入每个订阅者的队列后立即返回
// 每个订阅者拿到独立的事件副本
func (d *MemoryDispatcher) Publish(_ context.Context, event purchase.CommittedEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		metrics.EventsPublishedTotal.WithLabelValues(TransportMemory, "failure").Inc()
		return ErrDispatcherClosed
	}

	for _, s := range d.subs {
		cp := event
		cp.Purchase = event.Purchase.Clone()
		s.push(cp)
	}

	metrics.EventsPublishedTotal.WithLabelValues(TransportMemory, "success").Inc()
	return nil
}

// Ping 已启动且未关闭
func (d *MemoryDispatcher) Ping(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.closed:
		return ErrDispatcherClosed
	case !d.started:
		return ErrNotStarted
	default:
		return nil
	}
}

// Shutdown 停止接收新事件，等待队列中的事件处理完
// ctx到期时返回ctx.Err()，剩余事件随进程退出丢弃
func (d *MemoryDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, s := range d.subs {
		s.close()
	}
	group := d.group
	d.mu.Unlock()

	if group == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("内存事件分发器已关闭")
		return nil
	case <-ctx.Done():
		d.logger.Warn("等待订阅者处理完成超时", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// run 单个订阅者的工作循环：按FIFO顺序逐个处理
func (d *MemoryDispatcher) run(ctx context.Context, s *memorySubscription) {
	for {
		event, ok := s.pop(ctx)
		if !ok {
			return
		}
		_ = d.invoker.invoke(ctx, s.name, s.handler, event)
	}
}

// memorySubscription 单个订阅者的无界FIFO队列
type memorySubscription struct {
	name    string
	handler Handler

	mu     sync.Mutex
	queue  []purchase.CommittedEvent
	closed bool
	notify chan struct{} // 容量1，有新事件或关闭时发信号
}

func newMemorySubscription(name string, handler Handler) *memorySubscription {
	return &memorySubscription{
		name:    name,
		handler: handler,
		notify:  make(chan struct{}, 1),
	}
}

func (s *memorySubscription) push(event purchase.CommittedEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, event)
	depth := len(s.queue)
	s.mu.Unlock()

	metrics.SubscriberQueueDepth.WithLabelValues(s.name).Set(float64(depth))
	s.signal()
}

// pop 取出队首事件；队列为空时等待
// 返回false：已关闭且队列已空，或ctx已取消
func (s *memorySubscription) pop(ctx context.Context) (purchase.CommittedEvent, bool) {
	for {
		if ctx.Err() != nil {
			return purchase.CommittedEvent{}, false
		}

		s.mu.Lock()
		if len(s.queue) > 0 {
			event := s.queue[0]
			s.queue[0] = purchase.CommittedEvent{}
			s.queue = s.queue[1:]
			depth := len(s.queue)
			s.mu.Unlock()

			metrics.SubscriberQueueDepth.WithLabelValues(s.name).Set(float64(depth))
			return event, true
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return purchase.CommittedEvent{}, false
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return purchase.CommittedEvent{}, false
		}
	}
}

func (s *memorySubscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *memorySubscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
