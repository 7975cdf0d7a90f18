package book

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 领域服务封装图书目录的业务规则
// 2. 不依赖具体的Repository实现(依赖倒置)
type Service interface {
	// Create 发布图书,初始状态ACTIVE
	// 发布者是否存在由应用层校验
	Create(ctx context.Context, name string, price decimal.Decimal, customerID uint) (*Book, error)

	// FindByID 根据ID获取图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindAllByIDs 批量获取图书,不存在的ID被忽略
	FindAllByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// List 分页查询全部图书
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// ListActive 分页查询在售图书
	ListActive(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// Update 修改名称和价格
	// 业务规则:CANCELLED和DELETED状态的图书不允许修改
	Update(ctx context.Context, id uint, name string, price decimal.Decimal) (*Book, error)

	// Delete 下架图书(状态改为CANCELLED,不物理删除)
	Delete(ctx context.Context, id uint) error

	// DeleteByCustomer 客户停用时,其名下图书全部改为DELETED
	DeleteByCustomer(ctx context.Context, customerID uint) error

	// MarkSold 批量标记为已售出(仅由购买对账订阅者调用)
	MarkSold(ctx context.Context, ids []uint) error
}

type service struct {
	repo Repository
}

// NewService 创建图书服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create 发布图书
func (s *service) Create(ctx context.Context, name string, price decimal.Decimal, customerID uint) (*Book, error) {
	// 1. 参数校验
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	// 2. 创建实体并持久化
	book := NewBook(name, price, customerID)
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

func (s *service) FindByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) FindAllByIDs(ctx context.Context, ids []uint) ([]*Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.FindAllByIDs(ctx, ids)
}

func (s *service) List(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *service) ListActive(ctx context.Context, params ListParams) ([]*Book, int64, error) {
	params.Status = StatusActive
	return s.List(ctx, params)
}

// Update 修改图书信息
func (s *service) Update(ctx context.Context, id uint, name string, price decimal.Decimal) (*Book, error) {
	// 1. 查询图书
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 2. 状态校验并修改
	if err := book.UpdateInfo(strings.TrimSpace(name), price); err != nil {
		return nil, err
	}

	// 3. 持久化
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Delete 下架图书
func (s *service) Delete(ctx context.Context, id uint) error {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	book.Cancel()
	return s.repo.Update(ctx, book)
}

func (s *service) DeleteByCustomer(ctx context.Context, customerID uint) error {
	return s.repo.UpdateStatusByCustomer(ctx, customerID, StatusDeleted)
}

// MarkSold 批量标记已售出
// 不重新校验当前状态:并发购买同一本书时后写入者生效
func (s *service) MarkSold(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.repo.MarkSold(ctx, ids)
}
