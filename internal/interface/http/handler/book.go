package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/mercadolivro/internal/application/book"
	"github.com/xiebiao/mercadolivro/internal/domain/book"
	"github.com/xiebiao/mercadolivro/internal/interface/http/dto"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	publish *appbook.PublishBookUseCase
	manage  *appbook.ManageBookUseCase
	query   *appbook.QueryBooksUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(publish *appbook.PublishBookUseCase, manage *appbook.ManageBookUseCase, query *appbook.QueryBooksUseCase) *BookHandler {
	return &BookHandler{publish: publish, manage: manage, query: query}
}

// List 图书列表
// @Summary      图书列表
// @Description  分页查询全部图书（含已售出、已下架）
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码(从1开始)"
// @Param        size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{items=[]appbook.BookResponse}}
// @Router       /api/v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	h.list(c, h.query.List)
}

// ListActive 在售图书
// @Summary      在售图书列表
// @Tags         图书
// @Produce      json
// @Param        page query int false "页码(从1开始)"
// @Param        size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{items=[]appbook.BookResponse}}
// @Router       /api/v1/books/active [get]
func (h *BookHandler) ListActive(c *gin.Context) {
	h.list(c, h.query.ListActive)
}

func (h *BookHandler) list(c *gin.Context, fetch func(ctx context.Context, params book.ListParams) ([]appbook.BookResponse, int64, error)) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}
	params := book.ListParams{Page: page.Page, PageSize: page.Size}
	params.Normalize()

	items, total, err := fetch(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, items, total, params.Page, params.PageSize)
}

// Get 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Publish 上架图书
// @Summary      上架图书
// @Description  以当前登录客户的名义上架，ADMIN可以指定customer_id
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=appbook.BookResponse}
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "客户不存在"
// @Failure      422 {object} response.Response "参数错误"
// @Router       /api/v1/books [post]
func (h *BookHandler) Publish(c *gin.Context) {
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.publish.Execute(c.Request.Context(), middleware.CurrentActor(c), appbook.PublishBookRequest{
		Name:       req.Name,
		Price:      *req.Price,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update 修改图书
// @Summary      修改图书
// @Description  已下架(CANCELLED)或已删除(DELETED)的图书不允许修改
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        request body dto.UpdateBookRequest true "修改内容"
// @Success      200 {object} response.Response{data=appbook.BookResponse}
// @Failure      400 {object} response.Response "图书当前状态不允许修改"
// @Failure      403 {object} response.Response "无权操作此图书"
// @Router       /api/v1/books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.manage.Update(c.Request.Context(), middleware.CurrentActor(c), id, appbook.UpdateBookRequest{
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 下架图书
// @Summary      下架图书
// @Description  状态改为CANCELLED，不物理删除
// @Tags         图书
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      204
// @Failure      403 {object} response.Response "无权操作此图书"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.manage.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
