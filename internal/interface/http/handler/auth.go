package handler

import (
	"github.com/gin-gonic/gin"

	appauth "github.com/xiebiao/mercadolivro/internal/application/auth"
	"github.com/xiebiao/mercadolivro/internal/interface/http/dto"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

// AuthHandler 登录认证HTTP处理器
type AuthHandler struct {
	login   *appauth.LoginUseCase
	logout  *appauth.LogoutUseCase
	refresh *appauth.RefreshTokenUseCase
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(login *appauth.LoginUseCase, logout *appauth.LogoutUseCase, refresh *appauth.RefreshTokenUseCase) *AuthHandler {
	return &AuthHandler{login: login, logout: logout, refresh: refresh}
}

// Login 登录
// @Summary      客户登录
// @Description  邮箱密码登录，返回Access Token与Refresh Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=appauth.LoginResponse}
// @Failure      401 {object} response.Response "邮箱或密码错误"
// @Failure      422 {object} response.Response "参数错误"
// @Router       /api/v1/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.login.Execute(c.Request.Context(), appauth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Logout 登出
// @Summary      客户登出
// @Description  删除会话并将当前Access Token加入黑名单
// @Tags         认证
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.logout.Execute(c.Request.Context(), claims, middleware.GetToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshTokenRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=dto.RefreshTokenResponse}
// @Failure      401 {object} response.Response "Token无效或已过期"
// @Router       /api/v1/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.refresh.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.RefreshTokenResponse{AccessToken: token})
}
