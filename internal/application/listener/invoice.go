package listener

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	"github.com/xiebiao/mercadolivro/pkg/metrics"
)

// InvoiceAssignerName 订阅者名称
const InvoiceAssignerName = "invoice_assigner"

// PurchaseUpdater 写回发票号(purchase.Service实现)
type PurchaseUpdater interface {
	// Update 整条覆盖
	Update(ctx context.Context, p *purchase.Purchase) error
	// AssignInvoice 仅当尚未开票时写入,返回false表示已有发票号
	AssignInvoice(ctx context.Context, id uint, nfe string) (bool, error)
}

// InvoiceLock 同一购买的开票互斥
// 返回的unlock必须调用
type InvoiceLock interface {
	Lock(ctx context.Context, purchaseID uint) (unlock func(), err error)
}

// InvoiceAssigner 购买提交后生成发票号(NFE)并写回购买记录
//
// 未配置InvoiceLock时,重复投递会用新的发票号覆盖旧值;
// 配置后,持锁条件写入,已有发票号的购买直接跳过。
type InvoiceAssigner struct {
	purchases PurchaseUpdater
	lock      InvoiceLock
	newNFE    func() string
	logger    *zap.Logger
}

// NewInvoiceAssigner 创建发票订阅者,lock可以为nil
func NewInvoiceAssigner(purchases PurchaseUpdater, lock InvoiceLock, logger *zap.Logger) *InvoiceAssigner {
	return &InvoiceAssigner{
		purchases: purchases,
		lock:      lock,
		newNFE:    uuid.NewString,
		logger:    logger.Named(InvoiceAssignerName),
	}
}

// Handle 生成UUID发票号并写回购买记录
func (a *InvoiceAssigner) Handle(ctx context.Context, event purchase.CommittedEvent) error {
	id := event.Purchase.ID
	nfe := a.newNFE()

	if a.lock == nil {
		// 覆盖模式:复制事件中的快照,只修改NFE
		if err := a.purchases.Update(ctx, event.Purchase.WithNFE(nfe)); err != nil {
			return err
		}
		a.logger.Info("发票号已分配", zap.Uint("purchase_id", id), zap.String("nfe", nfe))
		return nil
	}

	// 1. 短期锁,避免并发投递同时开票
	unlock, err := a.lock.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	// 2. 以数据库状态去重:已有发票号则跳过
	assigned, err := a.purchases.AssignInvoice(ctx, id, nfe)
	if err != nil {
		return err
	}
	if !assigned {
		a.logger.Info("发票号已分配,跳过重复投递", zap.Uint("purchase_id", id))
		metrics.InitMetrics()
		metrics.SubscriberExecutionsTotal.WithLabelValues(InvoiceAssignerName, "skipped").Inc()
		return nil
	}

	a.logger.Info("发票号已分配", zap.Uint("purchase_id", id), zap.String("nfe", nfe))
	return nil
}
