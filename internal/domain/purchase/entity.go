package purchase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
)

// PurchasedBook 购买时的图书快照
// 只保存BookID和下单时的名称、价格,不跨聚合引用Book对象
type PurchasedBook struct {
	BookID uint
	Name   string
	Price  decimal.Decimal
}

// Purchase 购买记录(聚合根)
// 设计说明:
// 1. 一次写入创建,之后只允许通过Update写入NFE,不删除
// 2. Price在创建时由快照价格求和得到,之后不再重新计算
// 3. NFE(发票号)创建时为空,由发票订阅者异步补写
type Purchase struct {
	ID         uint
	CustomerID uint
	Books      []PurchasedBook
	Price      decimal.Decimal
	NFE        string
	CreatedAt  time.Time
}

// NewPurchase 根据已校验的图书创建购买记录(工厂方法)
func NewPurchase(customerID uint, books []*book.Book) *Purchase {
	snapshot := make([]PurchasedBook, len(books))
	total := decimal.Zero
	for i, b := range books {
		snapshot[i] = PurchasedBook{BookID: b.ID, Name: b.Name, Price: b.Price}
		total = total.Add(b.Price)
	}

	return &Purchase{
		CustomerID: customerID,
		Books:      snapshot,
		Price:      total,
		CreatedAt:  time.Now(),
	}
}

// HasInvoice 是否已分配发票号
func (p *Purchase) HasInvoice() bool {
	return p.NFE != ""
}

// BookIDs 快照中的图书ID(保持顺序)
func (p *Purchase) BookIDs() []uint {
	ids := make([]uint, len(p.Books))
	for i, b := range p.Books {
		ids[i] = b.BookID
	}
	return ids
}

// Clone 深拷贝,Books切片不与原记录共享
func (p *Purchase) Clone() *Purchase {
	cp := *p
	cp.Books = append([]PurchasedBook(nil), p.Books...)
	return &cp
}

// WithNFE 返回设置了发票号的副本,原记录不变
func (p *Purchase) WithNFE(nfe string) *Purchase {
	cp := p.Clone()
	cp.NFE = nfe
	return cp
}
