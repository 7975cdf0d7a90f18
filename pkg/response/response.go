package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// Response 统一响应结构
// 设计说明：
// 1. Code是业务错误码，方便客户端判断错误类型
// 2. HTTP状态码由Code推导（404xx→404、401xx→401等）
// 3. Data是业务数据，成功时返回，失败时为null
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应（Code=0表示成功）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应（201）
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// NoContent 无内容响应（204），用于更新和删除
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 错误响应（自动处理AppError）
// 内部错误通过c.Error挂到gin.Context上，由日志中间件统一记录
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)

	if appErr.Err != nil {
		_ = c.Error(appErr.Err)
	}

	c.JSON(StatusOf(appErr.Code), Response{
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    nil,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(StatusOf(code), Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// StatusOf 业务错误码 → HTTP状态码
func StatusOf(code int) int {
	switch {
	case code == apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case code == apperrors.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code >= 40400 && code < 40500:
		return http.StatusNotFound
	case code >= 40900 && code < 41000:
		return http.StatusUnprocessableEntity
	case code >= 40000 && code < 40100:
		return http.StatusBadRequest
	case code >= 50000:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// =========================================
// 分页响应结构
// =========================================

// PageData 分页数据封装
type PageData struct {
	Items       interface{} `json:"items"`        // 数据列表
	CurrentPage int         `json:"current_page"` // 当前页码(从1开始)
	TotalItems  int64       `json:"total_items"`  // 总记录数
	Size        int         `json:"size"`         // 每页大小
	TotalPages  int         `json:"total_pages"`  // 总页数
}

// NewPageData 创建分页数据
func NewPageData(items interface{}, total int64, page, size int) *PageData {
	totalPages := 0
	if size > 0 {
		totalPages = int(total) / size
		if int(total)%size != 0 {
			totalPages++
		}
	}

	return &PageData{
		Items:       items,
		CurrentPage: page,
		TotalItems:  total,
		Size:        size,
		TotalPages:  totalPages,
	}
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, items interface{}, total int64, page, size int) {
	Success(c, NewPageData(items, total, page, size))
}
