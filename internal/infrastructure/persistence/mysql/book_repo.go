package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/mercadolivro/internal/domain/book"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// bookRepository 图书仓储实现
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建图书失败")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindAllByIDs 批量查询图书
// 1. 一条SQL:SELECT * FROM books WHERE id IN (...) ORDER BY id
// 2. 不存在的ID被忽略,调用方通过结果数量判断是否缺失
func (r *bookRepository) FindAllByIDs(ctx context.Context, ids []uint) ([]*book.Book, error) {
	if len(ids) == 0 {
		return []*book.Book{}, nil
	}

	var models []BookModel
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "批量查询图书失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

// List 分页查询图书列表
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	params.Normalize()

	query := getDB(ctx, r.db).Model(&BookModel{})
	if params.Status != "" {
		query = query.Where("status = ?", string(params.Status))
	}

	// 1. 统计总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计图书数量失败")
	}

	// 2. 分页查询
	var models []BookModel
	if err := query.Order("id").Offset(params.Offset()).Limit(params.PageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, total, nil
}

// Update 整行覆盖
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	result := getDB(ctx, r.db).Model(&BookModel{ID: b.ID}).
		Select("name", "price", "customer_id", "status", "updated_at").
		Updates(model)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新图书失败")
	}
	// MySQL在值未变化时RowsAffected为0,需要再确认记录是否存在
	if result.RowsAffected == 0 {
		found, err := exists(ctx, r.db, &BookModel{}, b.ID)
		if err != nil {
			return err
		}
		if !found {
			return book.ErrBookNotFound
		}
	}
	return nil
}

// MarkSold 批量标记为已售出
// 不检查影响行数:已删除的图书被静默忽略
func (r *bookRepository) MarkSold(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	err := getDB(ctx, r.db).Model(&BookModel{}).
		Where("id IN ?", ids).
		Update("status", string(book.StatusSold)).Error
	if err != nil {
		return apperrors.Wrap(err, "标记图书已售出失败")
	}
	return nil
}

// UpdateStatusByCustomer 批量修改某客户名下所有图书的状态
func (r *bookRepository) UpdateStatusByCustomer(ctx context.Context, customerID uint, status book.Status) error {
	err := getDB(ctx, r.db).Model(&BookModel{}).
		Where("customer_id = ?", customerID).
		Update("status", string(status)).Error
	if err != nil {
		return apperrors.Wrap(err, "批量修改图书状态失败")
	}
	return nil
}

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:         b.ID,
		Name:       b.Name,
		Price:      b.Price,
		CustomerID: b.CustomerID,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(m *BookModel) *book.Book {
	return &book.Book{
		ID:         m.ID,
		Name:       m.Name,
		Price:      m.Price,
		CustomerID: m.CustomerID,
		Status:     book.Status(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
