package dto

// CreatePurchaseRequest HTTP下单请求
// 同一本书重复出现只计一次(按ID批量查询)
type CreatePurchaseRequest struct {
	CustomerID uint   `json:"customer_id" binding:"required,min=1" example:"1"`
	BookIDs    []uint `json:"book_ids" binding:"required,min=1,max=100,dive,min=1" example:"1,2"`
}
