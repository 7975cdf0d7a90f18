// Package auth 登录、登出与调用者身份
package auth

import (
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
)

// Actor 当前请求的调用者(由鉴权中间件从JWT解析)
type Actor struct {
	CustomerID uint
	Roles      []string
}

// IsAdmin 是否拥有ADMIN角色
func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == string(customer.RoleAdmin) {
			return true
		}
	}
	return false
}

// CanAccess 是否可以操作属于ownerID的资源
// 客户只能操作自己的资源,ADMIN不受限制
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsAdmin() || a.CustomerID == ownerID
}
