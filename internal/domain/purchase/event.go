package purchase

import (
	"context"
	"time"
)

// EventCommitted 购买提交事件名(同时作为消息路由键)
const EventCommitted = "purchase.committed"

// CommittedEvent 购买已提交事件
// 只在事务提交后发布,携带完整的购买记录(含图书快照)
type CommittedEvent struct {
	Purchase   *Purchase
	OccurredAt time.Time
}

// NewCommittedEvent 基于已持久化的购买记录创建事件
// 事件持有副本,订阅者修改不会影响调用方
func NewCommittedEvent(p *Purchase) CommittedEvent {
	return CommittedEvent{
		Purchase:   p.Clone(),
		OccurredAt: time.Now(),
	}
}

// Publisher 事件发布端口
// Publish不等待订阅者执行,返回错误只表示事件未能入队
type Publisher interface {
	Publish(ctx context.Context, event CommittedEvent) error
}
