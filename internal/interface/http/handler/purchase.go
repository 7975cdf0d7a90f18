package handler

import (
	"github.com/gin-gonic/gin"

	apppurchase "github.com/xiebiao/mercadolivro/internal/application/purchase"
	"github.com/xiebiao/mercadolivro/internal/interface/http/dto"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

// PurchaseHandler 购买HTTP处理器
type PurchaseHandler struct {
	create *apppurchase.CreatePurchaseUseCase
	query  *apppurchase.QueryPurchaseUseCase
}

// NewPurchaseHandler 创建购买处理器
func NewPurchaseHandler(create *apppurchase.CreatePurchaseUseCase, query *apppurchase.QueryPurchaseUseCase) *PurchaseHandler {
	return &PurchaseHandler{create: create, query: query}
}

// Create 创建购买
// @Summary      购买图书
// @Description  校验图书状态并在一个事务中保存购买记录，提交后异步标记图书已售出并分配发票号。
// @Description  响应返回时nfe可能为空，图书可能仍为ACTIVE。
// @Tags         购买
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreatePurchaseRequest true "购买信息"
// @Success      201 {object} response.Response{data=apppurchase.PurchaseResponse}
// @Failure      400 {object} response.Response "图书不可售"
// @Failure      403 {object} response.Response "不能为他人下单"
// @Failure      404 {object} response.Response "客户或图书不存在"
// @Failure      422 {object} response.Response "参数错误"
// @Failure      429 {object} response.Response "请求过于频繁"
// @Router       /api/v1/purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.create.Execute(c.Request.Context(), middleware.CurrentActor(c), apppurchase.CreatePurchaseRequest{
		CustomerID: req.CustomerID,
		BookIDs:    req.BookIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get 购买记录详情
// @Summary      购买记录详情
// @Tags         购买
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "购买记录ID"
// @Success      200 {object} response.Response{data=apppurchase.PurchaseResponse}
// @Failure      404 {object} response.Response "购买记录不存在"
// @Router       /api/v1/purchases/{id} [get]
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.query.Get(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
