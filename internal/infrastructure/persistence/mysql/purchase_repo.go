package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// purchaseRepository 购买记录仓储实现
// 1. purchases与purchase_books一对多,Save时通过关联一次性写入
// 2. 查询时Preload图书快照,按快照ID排序保持下单顺序
type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建购买记录仓储
func NewPurchaseRepository(db *gorm.DB) purchase.Repository {
	return &purchaseRepository{db: db}
}

// Save 持久化新购买记录
// GORM会在同一事务中先插入purchases,再批量插入purchase_books
func (r *purchaseRepository) Save(ctx context.Context, p *purchase.Purchase) error {
	model := toPurchaseModel(p)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "保存购买记录失败")
	}

	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	return nil
}

// Update 整条记录覆盖
// 图书快照在创建后不可变,这里只覆盖purchases表的列
func (r *purchaseRepository) Update(ctx context.Context, p *purchase.Purchase) error {
	db := getDB(ctx, r.db)

	found, err := exists(ctx, r.db, &PurchaseModel{}, p.ID)
	if err != nil {
		return err
	}
	if !found {
		return purchase.ErrPurchaseNotFound
	}

	err = db.Model(&PurchaseModel{ID: p.ID}).
		Select("customer_id", "price", "nfe").
		Updates(&PurchaseModel{CustomerID: p.CustomerID, Price: p.Price, NFE: p.NFE}).Error
	if err != nil {
		return apperrors.Wrap(err, "更新购买记录失败")
	}
	return nil
}

// AssignNFE 条件写入发票号
// UPDATE purchases SET nfe=? WHERE id=? AND nfe='',并发投递只有一个能写入成功
func (r *purchaseRepository) AssignNFE(ctx context.Context, id uint, nfe string) (bool, error) {
	result := getDB(ctx, r.db).Model(&PurchaseModel{}).
		Where("id = ? AND nfe = ?", id, "").
		Update("nfe", nfe)
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "写入发票号失败")
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// 未命中:区分记录不存在与已有发票号
	found, err := exists(ctx, r.db, &PurchaseModel{}, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, purchase.ErrPurchaseNotFound
	}
	return false, nil
}

// FindByID 根据ID查询购买记录(含图书快照)
func (r *purchaseRepository) FindByID(ctx context.Context, id uint) (*purchase.Purchase, error) {
	var model PurchaseModel
	err := getDB(ctx, r.db).Preload("Books", orderByID).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, purchase.ErrPurchaseNotFound
		}
		return nil, apperrors.Wrap(err, "查询购买记录失败")
	}
	return toPurchaseEntity(&model), nil
}

// ListByCustomer 分页查询某客户的购买记录(按创建时间倒序)
func (r *purchaseRepository) ListByCustomer(ctx context.Context, customerID uint, params purchase.ListParams) ([]*purchase.Purchase, int64, error) {
	params.Normalize()

	query := getDB(ctx, r.db).Model(&PurchaseModel{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计购买记录失败")
	}

	var models []PurchaseModel
	err := query.Preload("Books", orderByID).
		Order("created_at DESC").Order("id DESC").
		Offset(params.Offset()).Limit(params.PageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询购买记录列表失败")
	}

	purchases := make([]*purchase.Purchase, len(models))
	for i := range models {
		purchases[i] = toPurchaseEntity(&models[i])
	}
	return purchases, total, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func toPurchaseModel(p *purchase.Purchase) *PurchaseModel {
	books := make([]PurchaseBookModel, len(p.Books))
	for i, b := range p.Books {
		books[i] = PurchaseBookModel{BookID: b.BookID, Name: b.Name, Price: b.Price}
	}

	return &PurchaseModel{
		ID:         p.ID,
		CustomerID: p.CustomerID,
		Price:      p.Price,
		NFE:        p.NFE,
		Books:      books,
		CreatedAt:  p.CreatedAt,
	}
}

// toPurchaseEntity GORM模型 → 领域实体
func toPurchaseEntity(m *PurchaseModel) *purchase.Purchase {
	books := make([]purchase.PurchasedBook, len(m.Books))
	for i, b := range m.Books {
		books[i] = purchase.PurchasedBook{BookID: b.BookID, Name: b.Name, Price: b.Price}
	}

	return &purchase.Purchase{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		Books:      books,
		Price:      m.Price,
		NFE:        m.NFE,
		CreatedAt:  m.CreatedAt,
	}
}
