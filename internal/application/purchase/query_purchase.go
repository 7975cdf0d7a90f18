package purchase

import (
	"context"

	"github.com/xiebiao/mercadolivro/internal/application/auth"
	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// QueryPurchaseUseCase 购买记录查询
// 客户只能查看自己的购买记录
type QueryPurchaseUseCase struct {
	customers CustomerFinder
	purchases purchase.Service
}

// NewQueryPurchaseUseCase 创建查询用例
func NewQueryPurchaseUseCase(customers CustomerFinder, purchases purchase.Service) *QueryPurchaseUseCase {
	return &QueryPurchaseUseCase{customers: customers, purchases: purchases}
}

// Get 查询单条购买记录
func (uc *QueryPurchaseUseCase) Get(ctx context.Context, actor auth.Actor, id uint) (*PurchaseResponse, error) {
	p, err := uc.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 无权查看时按不存在处理,不暴露他人的购买记录ID
	if !actor.CanAccess(p.CustomerID) {
		return nil, purchase.ErrPurchaseNotFound
	}
	return toPurchaseResponse(p), nil
}

// ListByCustomer 分页查询某客户的购买记录
func (uc *QueryPurchaseUseCase) ListByCustomer(ctx context.Context, actor auth.Actor, customerID uint, params purchase.ListParams) ([]PurchaseResponse, int64, error) {
	if !actor.CanAccess(customerID) {
		return nil, 0, apperrors.ErrForbidden
	}
	if _, err := uc.customers.FindByID(ctx, customerID); err != nil {
		return nil, 0, err
	}

	purchases, total, err := uc.purchases.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, 0, err
	}

	items := make([]PurchaseResponse, len(purchases))
	for i, p := range purchases {
		items[i] = *toPurchaseResponse(p)
	}
	return items, total, nil
}
