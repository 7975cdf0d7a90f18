package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

const issuer = "mercadolivro"

// TokenType 区分Access Token与Refresh Token,防止Refresh Token被当作Access Token使用
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Manager JWT管理器
// 1. 双Token机制：Access Token（短期）+ Refresh Token（长期）
// 2. Access Token携带角色列表,鉴权中间件据此判断ADMIN权限
type Manager struct {
	secret             []byte
	accessTokenExpire  time.Duration
	refreshTokenExpire time.Duration
	now                func() time.Time
}

// NewManager 创建JWT管理器
func NewManager(secret string, accessTokenExpire, refreshTokenExpire time.Duration) *Manager {
	return &Manager{
		secret:             []byte(secret),
		accessTokenExpire:  accessTokenExpire,
		refreshTokenExpire: refreshTokenExpire,
		now:                time.Now,
	}
}

// Claims 自定义JWT Claims
// 嵌入jwt.RegisteredClaims获取标准字段（exp、iat、nbf等）
type Claims struct {
	CustomerID uint      `json:"customer_id"`
	Email      string    `json:"email,omitempty"`
	Roles      []string  `json:"roles,omitempty"`
	Type       TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// HasRole 是否拥有指定角色
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenPair Token对（Access + Refresh）
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access Token过期时间（秒）
}

// GenerateToken 生成Token对
func (m *Manager) GenerateToken(customerID uint, email string, roles []string) (*TokenPair, error) {
	// 1. Access Token
	access, err := m.sign(Claims{
		CustomerID: customerID,
		Email:      email,
		Roles:      roles,
		Type:       TokenTypeAccess,
	}, m.accessTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Access Token失败")
	}

	// 2. Refresh Token（只包含CustomerID，减少payload大小）
	refresh, err := m.sign(Claims{
		CustomerID: customerID,
		Type:       TokenTypeRefresh,
	}, m.refreshTokenExpire)
	if err != nil {
		return nil, apperrors.Wrap(err, "生成Refresh Token失败")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTokenExpire.Seconds()),
	}, nil
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   fmt.Sprintf("%d", claims.CustomerID),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken 解析并验证Access Token
// 1. 验证签名算法与签名
// 2. 验证过期时间（exp）与生效时间（nbf）
// 3. 拒绝Refresh Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeAccess)
}

func (m *Manager) parse(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != want {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// Remaining Token剩余有效期（用于设置黑名单TTL）
func (m *Manager) Remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Sub(m.now())
}

// RefreshAccessToken 使用Refresh Token换取新的Access Token
// 角色可能已变化,由调用方重新查询客户后传入
func (m *Manager) RefreshAccessToken(refreshToken string, lookup func(customerID uint) (email string, roles []string, err error)) (string, error) {
	claims, err := m.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	email, roles, err := lookup(claims.CustomerID)
	if err != nil {
		return "", err
	}

	token, err := m.sign(Claims{
		CustomerID: claims.CustomerID,
		Email:      email,
		Roles:      roles,
		Type:       TokenTypeAccess,
	}, m.accessTokenExpire)
	if err != nil {
		return "", apperrors.Wrap(err, "刷新Token失败")
	}
	return token, nil
}
