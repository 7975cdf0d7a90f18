package purchase

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
)

// PurchaseResponse 购买记录响应DTO
type PurchaseResponse struct {
	ID         uint                `json:"id"`
	CustomerID uint                `json:"customer_id"`
	Books      []PurchasedBookItem `json:"books"`
	Price      decimal.Decimal     `json:"price" swaggertype:"string" example:"15.00"`
	NFE        string              `json:"nfe,omitempty"`
	CreatedAt  string              `json:"created_at"`
}

// PurchasedBookItem 购买时的图书快照
type PurchasedBookItem struct {
	BookID uint            `json:"book_id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price" swaggertype:"string" example:"10.00"`
}

func toPurchaseResponse(p *purchase.Purchase) *PurchaseResponse {
	books := make([]PurchasedBookItem, len(p.Books))
	for i, b := range p.Books {
		books[i] = PurchasedBookItem{BookID: b.BookID, Name: b.Name, Price: b.Price}
	}

	return &PurchaseResponse{
		ID:         p.ID,
		CustomerID: p.CustomerID,
		Books:      books,
		Price:      p.Price,
		NFE:        p.NFE,
		CreatedAt:  p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
