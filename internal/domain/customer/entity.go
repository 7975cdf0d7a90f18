package customer

import (
	"time"
)

// Status 客户状态
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Role 客户角色
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Customer 客户实体(聚合根)
// DDD设计说明:
// 1. 密码为bcrypt哈希值,实体不提供明文访问
// 2. 删除客户是逻辑删除:状态改为INACTIVE,名下图书改为DELETED
// 3. 领域实体不依赖GORM tag
type Customer struct {
	ID        uint
	Name      string
	Email     string
	Password  string // bcrypt哈希值
	Status    Status
	Roles     []Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer 创建新客户(工厂方法)
// hashedPassword必须是bcrypt加密后的密码
func NewCustomer(name, email, hashedPassword string) *Customer {
	now := time.Now()
	return &Customer{
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		Status:    StatusActive,
		Roles:     []Role{RoleCustomer},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive 是否为有效客户
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

// HasRole 是否拥有指定角色
func (c *Customer) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleNames 角色名列表(写入JWT)
func (c *Customer) RoleNames() []string {
	names := make([]string, len(c.Roles))
	for i, r := range c.Roles {
		names[i] = string(r)
	}
	return names
}

// UpdateProfile 修改姓名和邮箱,空值表示不修改
func (c *Customer) UpdateProfile(name, email string) {
	if name != "" {
		c.Name = name
	}
	if email != "" {
		c.Email = email
	}
	c.UpdatedAt = time.Now()
}

// Deactivate 停用客户
func (c *Customer) Deactivate() {
	c.Status = StatusInactive
	c.UpdatedAt = time.Now()
}
