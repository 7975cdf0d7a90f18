package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// isDuplicateError 判断是否为唯一索引冲突错误
// - MySQL 1062: Duplicate entry 'xxx' for key 'yyy'
// - PostgreSQL 23505: duplicate key value violates unique constraint
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// joinRoles/splitRoles 角色列表与逗号分隔字符串互转
func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// exists 按主键判断记录是否存在
func exists(ctx context.Context, db *gorm.DB, model interface{}, id uint) (bool, error) {
	var count int64
	if err := getDB(ctx, db).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "检查记录是否存在失败")
	}
	return count > 0, nil
}
