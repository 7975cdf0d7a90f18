package customer

import (
	"context"

	"github.com/xiebiao/mercadolivro/internal/domain/customer"
)

// RegisterUseCase 客户注册用例
// 注册是公开接口,邮箱唯一性由数据库索引保证
type RegisterUseCase struct {
	customers customer.Service
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(customers customer.Service) *RegisterUseCase {
	return &RegisterUseCase{customers: customers}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Execute 执行注册
// 返回应用层DTO而非领域实体,不暴露密码哈希
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*CustomerResponse, error) {
	c, err := uc.customers.Create(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// EmailAvailable 邮箱是否可用
func (uc *RegisterUseCase) EmailAvailable(ctx context.Context, email string) (bool, error) {
	return uc.customers.EmailAvailable(ctx, email)
}

// CustomerResponse 客户响应DTO
type CustomerResponse struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Status    string   `json:"status"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}

func toCustomerResponse(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Status:    string(c.Status),
		Roles:     c.RoleNames(),
		CreatedAt: c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
