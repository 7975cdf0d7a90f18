package dto

import "github.com/shopspring/decimal"

// PublishBookRequest HTTP上架请求
// price支持JSON数字或字符串("29.90"),由decimal解析,避免浮点误差
type PublishBookRequest struct {
	Name       string           `json:"name" binding:"required,max=200" example:"Dom Casmurro"`
	Price      *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"29.90"`
	CustomerID uint             `json:"customer_id" example:"1"` // 可选,仅ADMIN可以指定其他所有者
}

// UpdateBookRequest HTTP修改请求,字段为空表示不修改
type UpdateBookRequest struct {
	Name  string           `json:"name" binding:"omitempty,max=200" example:"Dom Casmurro (edição comentada)"`
	Price *decimal.Decimal `json:"price" swaggertype:"string" example:"34.90"`
}
