package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// customerRepository 客户仓储实现
// 1. 实现domain/customer/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 把唯一索引冲突翻译为ErrEmailDuplicate
type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓储
// 返回domain层的接口类型（依赖倒置）
func NewCustomerRepository(db *gorm.DB) customer.Repository {
	return &customerRepository{db: db}
}

// Create 创建客户
// 邮箱唯一性由数据库UNIQUE索引保证（而非应用层SELECT再INSERT）
func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	model := toCustomerModel(c)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return customer.ErrEmailDuplicate
		}
		return apperrors.Wrap(err, "创建客户失败")
	}

	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找客户
func (r *customerRepository) FindByID(ctx context.Context, id uint) (*customer.Customer, error) {
	var model CustomerModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "查询客户失败")
	}
	return toCustomerEntity(&model), nil
}

// FindByEmail 根据邮箱查找客户
func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var model CustomerModel
	if err := getDB(ctx, r.db).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "查询客户失败")
	}
	return toCustomerEntity(&model), nil
}

// ExistsByID 客户是否存在
func (r *customerRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&CustomerModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "检查客户是否存在失败")
	}
	return count > 0, nil
}

// ExistsByEmail 邮箱是否已被注册
func (r *customerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&CustomerModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "检查邮箱是否存在失败")
	}
	return count > 0, nil
}

// Update 整行覆盖
func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	model := toCustomerModel(c)

	result := getDB(ctx, r.db).Model(&CustomerModel{ID: c.ID}).
		Select("name", "email", "password", "status", "roles", "updated_at").
		Updates(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return customer.ErrEmailDuplicate
		}
		return apperrors.Wrap(result.Error, "更新客户失败")
	}
	// MySQL在值未变化时RowsAffected为0,需要再确认记录是否存在
	if result.RowsAffected == 0 {
		found, err := exists(ctx, r.db, &CustomerModel{}, c.ID)
		if err != nil {
			return err
		}
		if !found {
			return customer.ErrCustomerNotFound
		}
	}
	return nil
}

// List 分页查询客户,Name非空时按姓名模糊匹配
func (r *customerRepository) List(ctx context.Context, params customer.ListParams) ([]*customer.Customer, int64, error) {
	params.Normalize()

	query := getDB(ctx, r.db).Model(&CustomerModel{})
	if params.Name != "" {
		query = query.Where("name LIKE ?", "%"+params.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "统计客户数量失败")
	}

	var models []CustomerModel
	if err := query.Order("id").Offset(params.Offset()).Limit(params.PageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询客户列表失败")
	}

	customers := make([]*customer.Customer, len(models))
	for i := range models {
		customers[i] = toCustomerEntity(&models[i])
	}
	return customers, total, nil
}

func toCustomerModel(c *customer.Customer) *CustomerModel {
	return &CustomerModel{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Password:  c.Password,
		Status:    string(c.Status),
		Roles:     joinRoles(c.RoleNames()),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// toCustomerEntity GORM模型 → 领域实体
func toCustomerEntity(m *CustomerModel) *customer.Customer {
	names := splitRoles(m.Roles)
	roles := make([]customer.Role, len(names))
	for i, n := range names {
		roles[i] = customer.Role(n)
	}

	return &customer.Customer{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Password:  m.Password,
		Status:    customer.Status(m.Status),
		Roles:     roles,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
