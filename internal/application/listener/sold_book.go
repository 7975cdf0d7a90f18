package listener

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
)

// SoldBookReconcilerName 订阅者名称
const SoldBookReconcilerName = "sold_book_reconciler"

// SoldMarker 标记图书已售出(book.Service实现)
type SoldMarker interface {
	MarkSold(ctx context.Context, ids []uint) error
}

// SoldBookReconciler 购买提交后把快照中的图书全部标记为SOLD
//
// 不重新校验图书当前状态：
// 两笔并发购买包含同一本书时,两次执行都会写入SOLD,结果一致(后写入者生效)。
// 重复投递同一事件时再次写入,图书仍为SOLD。
type SoldBookReconciler struct {
	books  SoldMarker
	logger *zap.Logger
}

// NewSoldBookReconciler 创建图书对账订阅者
func NewSoldBookReconciler(books SoldMarker, logger *zap.Logger) *SoldBookReconciler {
	return &SoldBookReconciler{
		books:  books,
		logger: logger.Named(SoldBookReconcilerName),
	}
}

// Handle 一次批量写入:UPDATE books SET status='SOLD' WHERE id IN (...)
func (r *SoldBookReconciler) Handle(ctx context.Context, event purchase.CommittedEvent) error {
	ids := event.Purchase.BookIDs()
	if err := r.books.MarkSold(ctx, ids); err != nil {
		return err
	}

	r.logger.Info("图书已标记为售出",
		zap.Uint("purchase_id", event.Purchase.ID),
		zap.Uints("book_ids", ids),
	)
	return nil
}
