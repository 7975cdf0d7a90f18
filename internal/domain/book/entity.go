package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 图书状态
// 状态流转:
//
//	ACTIVE ──购买对账──▶ SOLD
//	ACTIVE ──删除图书──▶ CANCELLED
//	ACTIVE ──停用客户──▶ DELETED
type Status string

const (
	StatusActive    Status = "ACTIVE"    // 在售
	StatusSold      Status = "SOLD"      // 已售出
	StatusCancelled Status = "CANCELLED" // 已下架
	StatusDeleted   Status = "DELETED"   // 所属客户已停用
)

// String 实现Stringer接口
func (s Status) String() string {
	return string(s)
}

// Valid 是否为已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSold, StatusCancelled, StatusDeleted:
		return true
	}
	return false
}

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. 价格使用decimal定点数,避免浮点误差
// 2. CustomerID是发布该图书的客户
// 3. Status只能通过Writer端口修改(购买流程只持有Reader)
type Book struct {
	ID         uint
	Name       string
	Price      decimal.Decimal
	CustomerID uint
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBook 创建新图书(工厂方法),初始状态为ACTIVE
func NewBook(name string, price decimal.Decimal, customerID uint) *Book {
	now := time.Now()
	return &Book{
		Name:       name,
		Price:      price,
		CustomerID: customerID,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsSellable 只有在售图书可以被购买
func (b *Book) IsSellable() bool {
	return b.Status == StatusActive
}

// IsEditable 已下架或已删除的图书不允许修改
func (b *Book) IsEditable() bool {
	return b.Status != StatusCancelled && b.Status != StatusDeleted
}

// UpdateInfo 更新名称和价格
// 空名称和零价格表示不修改
func (b *Book) UpdateInfo(name string, price decimal.Decimal) error {
	if !b.IsEditable() {
		return newNotEditableError(b.Status)
	}
	if name != "" {
		b.Name = name
	}
	if !price.IsZero() {
		if price.IsNegative() {
			return ErrInvalidPrice
		}
		b.Price = price
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel 下架图书
func (b *Book) Cancel() {
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
}

// IsOwnedBy 检查图书是否由指定客户发布
func (b *Book) IsOwnedBy(customerID uint) bool {
	return b.CustomerID == customerID
}

// IDs 提取图书ID列表(保持顺序)
func IDs(books []*Book) []uint {
	ids := make([]uint, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}
