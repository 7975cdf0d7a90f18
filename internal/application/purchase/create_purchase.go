package purchase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/application/auth"
	"github.com/xiebiao/mercadolivro/internal/domain/book"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
	"github.com/xiebiao/mercadolivro/pkg/metrics"
	"github.com/xiebiao/mercadolivro/pkg/tracing"
)

// CustomerFinder 解析购买者
type CustomerFinder interface {
	FindByID(ctx context.Context, id uint) (*customer.Customer, error)
}

// CreatePurchaseUseCase 创建购买用例
// 1. 鉴权:客户只能为自己下单,ADMIN不受限制
// 2. 通过客户目录解析购买者
// 3. 调用购买流程(校验、单事务持久化、提交后发布事件)
// 4. 记录span与指标
type CreatePurchaseUseCase struct {
	customers CustomerFinder
	purchases purchase.Service
	logger    *zap.Logger
}

// NewCreatePurchaseUseCase 创建下单用例
func NewCreatePurchaseUseCase(customers CustomerFinder, purchases purchase.Service, logger *zap.Logger) *CreatePurchaseUseCase {
	return &CreatePurchaseUseCase{
		customers: customers,
		purchases: purchases,
		logger:    logger,
	}
}

// CreatePurchaseRequest 下单请求
type CreatePurchaseRequest struct {
	CustomerID uint
	BookIDs    []uint
}

// Execute 执行下单
// 返回时事件已发布但订阅者可能尚未执行:NFE为空,图书仍为ACTIVE
func (uc *CreatePurchaseUseCase) Execute(ctx context.Context, actor auth.Actor, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "purchase.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("customer.id", int64(req.CustomerID)),
		attribute.Int("purchase.books", len(req.BookIDs)),
	)

	metrics.InitMetrics()
	start := time.Now()
	defer func() {
		metrics.ObserveHistogram(metrics.PurchaseCreationDuration, time.Since(start).Seconds())
	}()

	p, err := uc.execute(ctx, actor, req)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.PurchasesFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	span.SetAttributes(attribute.Int64("purchase.id", int64(p.ID)))
	metrics.IncCounter(metrics.PurchasesCreatedTotal)
	metrics.ObserveHistogram(metrics.PurchaseBooks, float64(len(p.Books)))

	uc.logger.Info("购买已创建",
		zap.Uint("purchase_id", p.ID),
		zap.Uint("customer_id", p.CustomerID),
		zap.String("price", p.Price.StringFixed(2)),
		zap.Int("books", len(p.Books)),
		zap.String("trace_id", tracing.ExtractTraceID(ctx)))

	return toPurchaseResponse(p), nil
}

func (uc *CreatePurchaseUseCase) execute(ctx context.Context, actor auth.Actor, req CreatePurchaseRequest) (*purchase.Purchase, error) {
	// 1. 鉴权
	if !actor.CanAccess(req.CustomerID) {
		return nil, apperrors.ErrForbidden
	}

	// 2. 解析购买者
	c, err := uc.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, customer.ErrCustomerInactive
	}

	// 3. 购买流程
	return uc.purchases.Create(ctx, c.ID, req.BookIDs)
}

// failureReason 失败原因(指标标签,低基数)
func failureReason(err error) string {
	switch {
	case errors.Is(err, book.ErrBookNotFound), errors.Is(err, customer.ErrCustomerNotFound):
		return "not_found"
	case errors.Is(err, purchase.ErrUnsellable):
		return "unsellable"
	case errors.Is(err, apperrors.ErrInvalidParams):
		return "invalid"
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, customer.ErrCustomerInactive):
		return "forbidden"
	default:
		return "error"
	}
}
