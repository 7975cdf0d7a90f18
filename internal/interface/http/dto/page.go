package dto

// PageQuery 分页查询参数(页码从1开始)
type PageQuery struct {
	Page int `form:"page" binding:"omitempty,min=1" example:"1"`
	Size int `form:"size" binding:"omitempty,min=1,max=100" example:"10"`
}
