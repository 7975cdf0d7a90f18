package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/mercadolivro/internal/application/auth"
	"github.com/xiebiao/mercadolivro/internal/domain/book"
)

// ManageBookUseCase 修改与下架图书
// 只有图书所有者或ADMIN可以操作
type ManageBookUseCase struct {
	books book.Service
}

// NewManageBookUseCase 创建图书管理用例
func NewManageBookUseCase(books book.Service) *ManageBookUseCase {
	return &ManageBookUseCase{books: books}
}

// UpdateBookRequest 修改请求,空值表示不修改
type UpdateBookRequest struct {
	Name  string
	Price *decimal.Decimal
}

// Update 修改书名和价格
// CANCELLED/DELETED状态的图书返回ErrBookNotUpdatable
func (uc *ManageBookUseCase) Update(ctx context.Context, actor auth.Actor, id uint, req UpdateBookRequest) (*BookResponse, error) {
	b, err := uc.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = b.Name
	}
	price := b.Price
	if req.Price != nil {
		price = *req.Price
	}

	updated, err := uc.books.Update(ctx, id, name, price)
	if err != nil {
		return nil, err
	}
	return toBookResponse(updated), nil
}

// Delete 下架图书(状态改为CANCELLED)
func (uc *ManageBookUseCase) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	if _, err := uc.authorize(ctx, actor, id); err != nil {
		return err
	}
	return uc.books.Delete(ctx, id)
}

func (uc *ManageBookUseCase) authorize(ctx context.Context, actor auth.Actor, id uint) (*book.Book, error) {
	b, err := uc.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.CustomerID) {
		return nil, book.ErrForbidden
	}
	return b, nil
}
