package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// ErrInvoiceLockTimeout 等待开票锁超时
var ErrInvoiceLockTimeout = apperrors.New(apperrors.ErrCodeInternal, "等待开票锁超时")

// unlockScript 只删除自己持有的锁,避免误删过期后被其他消费者重新获取的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InvoiceLock 发票分配短期互斥锁
// 1. 同一购买事件被并发重复投递时(RabbitMQ至少一次语义),同一时刻只有一个消费者开票
// 2. 锁只负责互斥,是否已开票以数据库中的nfe为准
// 3. 持锁进程崩溃时锁在TTL后自动过期,重投的事件等待过期后继续处理
// Key设计：lock:nfe:purchase:{purchase_id}
type InvoiceLock struct {
	client   *redis.Client
	ttl      time.Duration
	retry    time.Duration
	newToken func() string
}

// NewInvoiceLock 创建开票锁,ttl为单次持锁上限
func NewInvoiceLock(client *redis.Client, ttl time.Duration) *InvoiceLock {
	return &InvoiceLock{
		client:   client,
		ttl:      ttl,
		retry:    100 * time.Millisecond,
		newToken: uuid.NewString,
	}
}

func invoiceLockKey(purchaseID uint) string {
	return fmt.Sprintf("lock:nfe:purchase:%d", purchaseID)
}

// Lock 获取某个购买的开票锁
// 锁被占用时轮询等待,最多等待两个TTL(崩溃遗留的锁届时已过期)
// 返回的unlock必须调用;释放失败时锁等待TTL过期
func (l *InvoiceLock) Lock(ctx context.Context, purchaseID uint) (func(), error) {
	key := invoiceLockKey(purchaseID)
	token := l.newToken()
	deadline := time.Now().Add(2 * l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, apperrors.Wrap(err, "获取开票锁失败")
		}
		if ok {
			return func() {
				// 调用方ctx可能已取消,释放使用独立的ctx
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrInvoiceLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
