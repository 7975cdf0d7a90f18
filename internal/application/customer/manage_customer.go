package customer

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/application/auth"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// Transactor 事务边界(由mysql.TxManager实现)
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ManageCustomerUseCase 查询、修改、停用客户
// 客户只能操作自己的资料,ADMIN不受限制
type ManageCustomerUseCase struct {
	customers customer.Service
	tx        Transactor
	logger    *zap.Logger
}

// NewManageCustomerUseCase 创建客户管理用例
func NewManageCustomerUseCase(customers customer.Service, tx Transactor, logger *zap.Logger) *ManageCustomerUseCase {
	return &ManageCustomerUseCase{customers: customers, tx: tx, logger: logger}
}

// UpdateCustomerRequest 修改请求,空值表示不修改
type UpdateCustomerRequest struct {
	Name  string
	Email string
}

// Get 查询客户
func (uc *ManageCustomerUseCase) Get(ctx context.Context, actor auth.Actor, id uint) (*CustomerResponse, error) {
	if !actor.CanAccess(id) {
		return nil, apperrors.ErrForbidden
	}
	c, err := uc.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// Update 修改姓名和邮箱
func (uc *ManageCustomerUseCase) Update(ctx context.Context, actor auth.Actor, id uint, req UpdateCustomerRequest) (*CustomerResponse, error) {
	if !actor.CanAccess(id) {
		return nil, apperrors.ErrForbidden
	}
	c, err := uc.customers.Update(ctx, id, req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// Delete 停用客户
// 客户状态改为INACTIVE与名下图书改为DELETED在同一事务中完成
func (uc *ManageCustomerUseCase) Delete(ctx context.Context, actor auth.Actor, id uint) error {
	if !actor.CanAccess(id) {
		return apperrors.ErrForbidden
	}

	err := uc.tx.Transaction(ctx, func(ctx context.Context) error {
		return uc.customers.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	uc.logger.Info("客户已停用", zap.Uint("customer_id", id), zap.Uint("operator_id", actor.CustomerID))
	return nil
}

// ListCustomersUseCase 客户列表查询
type ListCustomersUseCase struct {
	customers customer.Service
}

// NewListCustomersUseCase 创建列表查询用例
func NewListCustomersUseCase(customers customer.Service) *ListCustomersUseCase {
	return &ListCustomersUseCase{customers: customers}
}

// Execute 分页查询,name非空时按姓名模糊匹配
func (uc *ListCustomersUseCase) Execute(ctx context.Context, params customer.ListParams) ([]CustomerResponse, int64, error) {
	customers, total, err := uc.customers.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	items := make([]CustomerResponse, len(customers))
	for i, c := range customers {
		items[i] = *toCustomerResponse(c)
	}
	return items, total, nil
}
