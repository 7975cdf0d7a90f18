package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// SessionStore 会话存储
// 1. 记录客户登录会话（登录时间、客户端IP）
// 2. JWT黑名单（登出、强制下线）
// 3. Key设计：session:{customer_id}、blacklist:{token}
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(customerID uint) string {
	return fmt.Sprintf("session:%d", customerID)
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

// SaveSession 保存客户会话,过期时间与Refresh Token一致
func (s *SessionStore) SaveSession(ctx context.Context, customerID uint, data map[string]interface{}, ttl time.Duration) error {
	key := sessionKey(customerID)

	// HSet与Expire放在同一个pipeline中
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, "保存会话失败")
	}
	return nil
}

// GetSession 获取客户会话,不存在返回ErrUnauthorized
func (s *SessionStore) GetSession(ctx context.Context, customerID uint) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(customerID)).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "获取会话失败")
	}
	if len(result) == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	return result, nil
}

// DeleteSession 删除客户会话（用于登出）
func (s *SessionStore) DeleteSession(ctx context.Context, customerID uint) error {
	if err := s.client.Del(ctx, sessionKey(customerID)).Err(); err != nil {
		return apperrors.Wrap(err, "删除会话失败")
	}
	return nil
}

// AddToBlacklist 将Token加入黑名单
// ttl取Token剩余有效期,过期后自动清理
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.Wrap(err, "添加Token到黑名单失败")
	}
	return nil
}

// IsInBlacklist 检查Token是否在黑名单中
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "检查黑名单失败")
	}
	return n > 0, nil
}
