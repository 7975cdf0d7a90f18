package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	"github.com/xiebiao/mercadolivro/pkg/jwt"
)

// Authenticator 校验邮箱密码
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*customer.Customer, error)
	FindByID(ctx context.Context, id uint) (*customer.Customer, error)
}

// SessionStore 会话与Token黑名单存储(Redis实现)
type SessionStore interface {
	SaveSession(ctx context.Context, customerID uint, data map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, customerID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 客户登录用例
// 1. 验证邮箱密码
// 2. 生成JWT Token对(Access Token携带角色)
// 3. 保存会话到Redis
type LoginUseCase struct {
	customers  Authenticator
	jwtManager *jwt.Manager
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewLoginUseCase 创建登录用例,sessionTTL与Refresh Token有效期一致
func NewLoginUseCase(customers Authenticator, jwtManager *jwt.Manager, sessions SessionStore, sessionTTL time.Duration, logger *zap.Logger) *LoginUseCase {
	return &LoginUseCase{
		customers:  customers,
		jwtManager: jwtManager,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	Customer     CustomerInfo `json:"customer"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"` // Access Token过期时间（秒）
}

// CustomerInfo 登录客户信息
type CustomerInfo struct {
	ID    uint     `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	// 1. 验证邮箱密码
	c, err := uc.customers.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// 2. 生成Token对
	pair, err := uc.jwtManager.GenerateToken(c.ID, c.Email, c.RoleNames())
	if err != nil {
		return nil, err
	}

	// 3. 保存会话,失败不影响登录
	session := map[string]interface{}{
		"customer_id": c.ID,
		"email":       c.Email,
		"login_at":    time.Now().Unix(),
		"ip":          req.ClientIP,
	}
	if err := uc.sessions.SaveSession(ctx, c.ID, session, uc.sessionTTL); err != nil {
		uc.logger.Warn("保存会话失败", zap.Uint("customer_id", c.ID), zap.Error(err))
	}

	return &LoginResponse{
		Customer: CustomerInfo{
			ID:    c.ID,
			Name:  c.Name,
			Email: c.Email,
			Roles: c.RoleNames(),
		},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出用例
type LogoutUseCase struct {
	jwtManager *jwt.Manager
	sessions   SessionStore
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(jwtManager *jwt.Manager, sessions SessionStore) *LogoutUseCase {
	return &LogoutUseCase{jwtManager: jwtManager, sessions: sessions}
}

// Execute 执行登出
// 1. 删除会话
// 2. Access Token加入黑名单,TTL为Token剩余有效期
func (uc *LogoutUseCase) Execute(ctx context.Context, claims *jwt.Claims, accessToken string) error {
	if err := uc.sessions.DeleteSession(ctx, claims.CustomerID); err != nil {
		return err
	}
	return uc.sessions.AddToBlacklist(ctx, accessToken, uc.jwtManager.Remaining(claims))
}

// RefreshTokenUseCase 刷新Access Token
// 重新查询客户,停用客户不能刷新,角色变化立即生效
type RefreshTokenUseCase struct {
	customers  Authenticator
	jwtManager *jwt.Manager
}

// NewRefreshTokenUseCase 创建刷新用例
func NewRefreshTokenUseCase(customers Authenticator, jwtManager *jwt.Manager) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{customers: customers, jwtManager: jwtManager}
}

// Execute 执行刷新,返回新的Access Token
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, refreshToken string) (string, error) {
	return uc.jwtManager.RefreshAccessToken(refreshToken, func(id uint) (string, []string, error) {
		c, err := uc.customers.FindByID(ctx, id)
		if err != nil {
			return "", nil, err
		}
		if !c.IsActive() {
			return "", nil, customer.ErrCustomerInactive
		}
		return c.Email, c.RoleNames(), nil
	})
}
