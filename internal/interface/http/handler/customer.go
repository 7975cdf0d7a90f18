package handler

import (
	"github.com/gin-gonic/gin"

	appcustomer "github.com/xiebiao/mercadolivro/internal/application/customer"
	apppurchase "github.com/xiebiao/mercadolivro/internal/application/purchase"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	"github.com/xiebiao/mercadolivro/internal/interface/http/dto"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

// CustomerHandler 客户HTTP处理器
type CustomerHandler struct {
	register  *appcustomer.RegisterUseCase
	manage    *appcustomer.ManageCustomerUseCase
	list      *appcustomer.ListCustomersUseCase
	purchases *apppurchase.QueryPurchaseUseCase
}

// NewCustomerHandler 创建客户处理器
func NewCustomerHandler(
	register *appcustomer.RegisterUseCase,
	manage *appcustomer.ManageCustomerUseCase,
	list *appcustomer.ListCustomersUseCase,
	purchases *apppurchase.QueryPurchaseUseCase,
) *CustomerHandler {
	return &CustomerHandler{
		register:  register,
		manage:    manage,
		list:      list,
		purchases: purchases,
	}
}

// List 客户列表
// @Summary      客户列表
// @Description  分页查询客户，name非空时按姓名模糊匹配
// @Tags         客户
// @Produce      json
// @Param        name query string false "姓名关键字"
// @Param        page query int false "页码(从1开始)"
// @Param        size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{items=[]appcustomer.CustomerResponse}}
// @Router       /api/v1/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	params := customer.ListParams{Name: req.Name, Page: req.Page, PageSize: req.Size}
	params.Normalize()

	items, total, err := h.list.Execute(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, items, total, params.Page, params.PageSize)
}

// Create 注册客户
// @Summary      注册客户
// @Tags         客户
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateCustomerRequest true "客户信息"
// @Success      201 {object} response.Response{data=appcustomer.CustomerResponse}
// @Failure      400 {object} response.Response "邮箱已被注册"
// @Failure      422 {object} response.Response "参数错误"
// @Router       /api/v1/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.register.Execute(c.Request.Context(), appcustomer.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// EmailAvailable 邮箱是否可用
// @Summary      检查邮箱是否可用
// @Tags         客户
// @Produce      json
// @Param        email query string true "邮箱"
// @Success      200 {object} response.Response{data=dto.EmailAvailableResponse}
// @Router       /api/v1/customers/email-available [get]
func (h *CustomerHandler) EmailAvailable(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error(c, apperrors.ErrInvalidParams)
		return
	}

	ok, err := h.register.EmailAvailable(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.EmailAvailableResponse{Email: email, Available: ok})
}

// Get 查询客户
// @Summary      查询客户
// @Tags         客户
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "客户ID"
// @Success      200 {object} response.Response{data=appcustomer.CustomerResponse}
// @Failure      403 {object} response.Response "无权限"
// @Failure      404 {object} response.Response "客户不存在"
// @Router       /api/v1/customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.manage.Get(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 修改客户
// @Summary      修改客户资料
// @Tags         客户
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "客户ID"
// @Param        request body dto.UpdateCustomerRequest true "修改内容"
// @Success      200 {object} response.Response{data=appcustomer.CustomerResponse}
// @Failure      404 {object} response.Response "客户不存在"
// @Router       /api/v1/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.manage.Update(c.Request.Context(), middleware.CurrentActor(c), id, appcustomer.UpdateCustomerRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 停用客户
// @Summary      停用客户
// @Description  客户状态改为INACTIVE，名下图书全部改为DELETED
// @Tags         客户
// @Security     BearerAuth
// @Param        id path int true "客户ID"
// @Success      204
// @Failure      404 {object} response.Response "客户不存在"
// @Router       /api/v1/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
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

// ListPurchases 客户的购买记录
// @Summary      客户购买记录
// @Tags         客户
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "客户ID"
// @Param        page query int false "页码(从1开始)"
// @Param        size query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{items=[]apppurchase.PurchaseResponse}}
// @Router       /api/v1/customers/{id}/purchases [get]
func (h *CustomerHandler) ListPurchases(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}
	params := purchase.ListParams{Page: page.Page, PageSize: page.Size}
	params.Normalize()

	items, total, err := h.purchases.ListByCustomer(c.Request.Context(), middleware.CurrentActor(c), id, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, items, total, params.Page, params.PageSize)
}
