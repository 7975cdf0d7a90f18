package customer

import (
	"context"
)

// Repository 客户仓储接口
// 1. 接口定义在domain层,实现在infrastructure/persistence/mysql
// 2. 邮箱唯一性由数据库UNIQUE索引保证,Create遇到冲突返回ErrEmailDuplicate
type Repository interface {
	Create(ctx context.Context, customer *Customer) error

	// FindByID 不存在返回ErrCustomerNotFound
	FindByID(ctx context.Context, id uint) (*Customer, error)

	// FindByEmail 不存在返回ErrCustomerNotFound
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	ExistsByID(ctx context.Context, id uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Update 整行覆盖
	Update(ctx context.Context, customer *Customer) error

	// List 分页查询,Name非空时按姓名模糊匹配
	List(ctx context.Context, params ListParams) ([]*Customer, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Name     string
	Page     int // 页码(从1开始)
	PageSize int
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
