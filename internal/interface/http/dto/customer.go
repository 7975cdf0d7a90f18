package dto

// CreateCustomerRequest HTTP注册请求
// 说明：HTTP层的DTO，包含参数验证tag；密码强度由领域服务校验
type CreateCustomerRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100" example:"Ana Souza"`
	Email    string `json:"email" binding:"required,email" example:"ana@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"Secret123"`
}

// UpdateCustomerRequest HTTP修改请求,字段为空表示不修改
type UpdateCustomerRequest struct {
	Name  string `json:"name" binding:"omitempty,min=2,max=100" example:"Ana Maria Souza"`
	Email string `json:"email" binding:"omitempty,email" example:"ana.maria@example.com"`
}

// ListCustomersRequest HTTP客户列表请求
type ListCustomersRequest struct {
	Name string `form:"name" binding:"omitempty,max=100" example:"Ana"`
	PageQuery
}

// EmailAvailableResponse 邮箱可用性
type EmailAvailableResponse struct {
	Email     string `json:"email" example:"ana@example.com"`
	Available bool   `json:"available" example:"true"`
}
