package book

import (
	"context"
)

// Reader 图书只读端口
// 购买流程只依赖Reader,图书状态的写入集中在Writer
type Reader interface {
	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindAllByIDs 批量查询图书
	// 不存在的ID被静默忽略,结果可能少于入参(甚至为空)
	FindAllByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)
}

// Writer 图书写端口
type Writer interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// Update 更新图书(整行覆盖)
	Update(ctx context.Context, book *Book) error

	// MarkSold 批量标记为已售出
	// 一条语句:UPDATE books SET status='SOLD' WHERE id IN (...)
	MarkSold(ctx context.Context, ids []uint) error

	// UpdateStatusByCustomer 批量修改某客户名下所有图书的状态
	UpdateStatusByCustomer(ctx context.Context, customerID uint, status Status) error
}

// Repository 图书仓储接口(依赖倒置原则)
// 由domain层定义接口,infrastructure层实现
type Repository interface {
	Reader
	Writer
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Status   Status // 为空表示不过滤
}

// Normalize 修正分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset 计算偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
