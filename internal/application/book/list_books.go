package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
)

// QueryBooksUseCase 图书查询用例(公开接口,无需登录)
type QueryBooksUseCase struct {
	books book.Service
}

// NewQueryBooksUseCase 创建查询用例
func NewQueryBooksUseCase(books book.Service) *QueryBooksUseCase {
	return &QueryBooksUseCase{books: books}
}

// BookResponse 图书响应DTO
type BookResponse struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price" swaggertype:"string" example:"29.90"`
	CustomerID uint            `json:"customer_id"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
}

// Get 查询图书详情
func (uc *QueryBooksUseCase) Get(ctx context.Context, id uint) (*BookResponse, error) {
	b, err := uc.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBookResponse(b), nil
}

// List 分页查询全部图书
func (uc *QueryBooksUseCase) List(ctx context.Context, params book.ListParams) ([]BookResponse, int64, error) {
	books, total, err := uc.books.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return toBookResponses(books), total, nil
}

// ListActive 分页查询在售图书
func (uc *QueryBooksUseCase) ListActive(ctx context.Context, params book.ListParams) ([]BookResponse, int64, error) {
	books, total, err := uc.books.ListActive(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return toBookResponses(books), total, nil
}

func toBookResponse(b *book.Book) *BookResponse {
	return &BookResponse{
		ID:         b.ID,
		Name:       b.Name,
		Price:      b.Price,
		CustomerID: b.CustomerID,
		Status:     b.Status.String(),
		CreatedAt:  b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toBookResponses(books []*book.Book) []BookResponse {
	items := make([]BookResponse, len(books))
	for i, b := range books {
		items[i] = *toBookResponse(b)
	}
	return items
}
