package purchase

import (
	"context"
)

// Repository 购买记录仓储接口
type Repository interface {
	// Save 持久化新购买记录(连同图书快照),成功后回填ID
	Save(ctx context.Context, purchase *Purchase) error

	// Update 整条记录覆盖,记录不存在返回ErrPurchaseNotFound
	Update(ctx context.Context, purchase *Purchase) error

	// AssignNFE 仅当记录尚无发票号时写入nfe
	// 返回false表示已有发票号(未修改),记录不存在返回ErrPurchaseNotFound
	AssignNFE(ctx context.Context, id uint, nfe string) (bool, error)

	// FindByID 不存在返回ErrPurchaseNotFound
	FindByID(ctx context.Context, id uint) (*Purchase, error)

	// ListByCustomer 分页查询某客户的购买记录(按创建时间倒序)
	ListByCustomer(ctx context.Context, customerID uint, params ListParams) ([]*Purchase, int64, error)
}

// Transactor 事务边界
// fn内通过ctx访问同一个事务,fn返回error时回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ListParams 列表查询参数
type ListParams struct {
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
