package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/mercadolivro/internal/application/auth"
	"github.com/xiebiao/mercadolivro/internal/domain/book"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// CustomerFinder 校验图书所有者
type CustomerFinder interface {
	FindByID(ctx context.Context, id uint) (*customer.Customer, error)
}

// PublishBookUseCase 图书上架用例
// 1. 客户只能以自己的名义上架,ADMIN可以指定所有者
// 2. 所有者必须存在且处于ACTIVE状态
type PublishBookUseCase struct {
	books     book.Service
	customers CustomerFinder
}

// NewPublishBookUseCase 创建上架用例
func NewPublishBookUseCase(books book.Service, customers CustomerFinder) *PublishBookUseCase {
	return &PublishBookUseCase{books: books, customers: customers}
}

// PublishBookRequest 上架请求DTO
type PublishBookRequest struct {
	Name       string
	Price      decimal.Decimal
	CustomerID uint // 为0时取调用者
}

// Execute 执行上架
func (uc *PublishBookUseCase) Execute(ctx context.Context, actor auth.Actor, req PublishBookRequest) (*BookResponse, error) {
	ownerID := req.CustomerID
	if ownerID == 0 {
		ownerID = actor.CustomerID
	}
	if !actor.CanAccess(ownerID) {
		return nil, apperrors.ErrForbidden
	}

	owner, err := uc.customers.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsActive() {
		return nil, customer.ErrCustomerInactive
	}

	b, err := uc.books.Create(ctx, req.Name, req.Price, owner.ID)
	if err != nil {
		return nil, err
	}
	return toBookResponse(b), nil
}
