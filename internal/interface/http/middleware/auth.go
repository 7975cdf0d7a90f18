package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/mercadolivro/internal/application/auth"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
	"github.com/xiebiao/mercadolivro/pkg/jwt"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

const (
	ctxKeyClaims = "claims"
	ctxKeyToken  = "access_token"
)

// TokenBlacklist Token黑名单(Redis实现)
type TokenBlacklist interface {
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
// 1. 从Header提取Token
// 2. 检查Token黑名单
// 3. 验证Token并解析Claims
// 4. 将客户信息注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
// 使用方式：
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 提取Token,格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}
		token := parts[1]

		// 2. 黑名单（已登出的Token）
		revoked, err := m.blacklist.IsInBlacklist(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if revoked {
			response.ErrorWithCode(c, apperrors.ErrCodeTokenExpired, "Token已失效，请重新登录")
			c.Abort()
			return
		}

		// 3. 验证Token
		claims, err := m.jwtManager.ParseToken(token)
		if err != nil {
			response.Error(c, err) // ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		// 4. 注入Context
		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// RequireRole 要求拥有指定角色,必须放在RequireAuth之后
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.HasRole(role) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetClaims 从Context获取当前Token的Claims,未登录返回nil
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(ctxKeyClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetToken 当前请求的Access Token
func GetToken(c *gin.Context) string {
	return c.GetString(ctxKeyToken)
}

// GetCustomerID 从Context获取当前登录客户ID,未登录返回0
func GetCustomerID(c *gin.Context) uint {
	if claims := GetClaims(c); claims != nil {
		return claims.CustomerID
	}
	return 0
}

// CurrentActor 当前调用者,未登录时返回零值(没有任何权限)
func CurrentActor(c *gin.Context) auth.Actor {
	claims := GetClaims(c)
	if claims == nil {
		return auth.Actor{}
	}
	return auth.Actor{CustomerID: claims.CustomerID, Roles: claims.Roles}
}
