package customer

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

// BookRetirer 停用客户时下架其名下图书
// 由book.Service实现
type BookRetirer interface {
	DeleteByCustomer(ctx context.Context, customerID uint) error
}

// Service 客户领域服务
// 设计说明:
// 1. Service包含不属于单个实体的业务逻辑(密码加密、校验、停用级联)
// 2. Service依赖Repository接口,不依赖具体实现
// 3. Service不处理HTTP请求,只处理业务逻辑
type Service interface {
	// Create 注册客户
	Create(ctx context.Context, name, email, password string) (*Customer, error)

	// FindByID 查询客户,不存在返回ErrCustomerNotFound
	FindByID(ctx context.Context, id uint) (*Customer, error)

	// List 分页查询客户
	List(ctx context.Context, params ListParams) ([]*Customer, int64, error)

	// Update 修改姓名和邮箱
	Update(ctx context.Context, id uint, name, email string) (*Customer, error)

	// Delete 停用客户:状态改为INACTIVE,名下图书全部改为DELETED
	Delete(ctx context.Context, id uint) error

	// EmailAvailable 邮箱是否未被注册
	EmailAvailable(ctx context.Context, email string) (bool, error)

	// Authenticate 邮箱+密码登录校验
	Authenticate(ctx context.Context, email, password string) (*Customer, error)
}

type service struct {
	repo  Repository
	books BookRetirer
	cost  int
}

// NewService 创建客户服务
func NewService(repo Repository, books BookRetirer) Service {
	return &service{repo: repo, books: books, cost: 12}
}

// Create 注册客户
// 业务规则:
// 1. 姓名2-100个字符
// 2. 邮箱格式校验
// 3. 密码强度校验(8-20位,包含字母和数字)
// 4. 密码bcrypt加密(cost=12)
// 5. 邮箱唯一性由数据库UNIQUE索引保证
func (s *service) Create(ctx context.Context, name, email, password string) (*Customer, error) {
	// 1. 参数校验
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePasswordStrength(password); err != nil {
		return nil, err
	}

	// 2. 密码加密
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	// 3. 持久化
	c := NewCustomer(name, email, string(hashed))
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err // Repository已转换为ErrEmailDuplicate
	}

	return c, nil
}

func (s *service) FindByID(ctx context.Context, id uint) (*Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) ([]*Customer, int64, error) {
	params.Normalize()
	params.Name = strings.TrimSpace(params.Name)
	return s.repo.List(ctx, params)
}

// Update 修改客户资料
func (s *service) Update(ctx context.Context, id uint, name, email string) (*Customer, error) {
	// 1. 参数校验
	name = strings.TrimSpace(name)
	if name != "" {
		if err := validateName(name); err != nil {
			return nil, err
		}
	}
	if email != "" && !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	// 2. 查询(同时完成存在性校验)
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. 修改并持久化
	c.UpdateProfile(name, email)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete 停用客户
// 调用方负责把本方法包在事务中,保证两次写入原子
func (s *service) Delete(ctx context.Context, id uint) error {
	// 1. 查询客户
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// 2. 下架名下图书
	if err := s.books.DeleteByCustomer(ctx, id); err != nil {
		return err
	}

	// 3. 停用客户
	c.Deactivate()
	return s.repo.Update(ctx, c)
}

func (s *service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Authenticate 登录校验
// 邮箱不存在与密码错误返回同一个错误,避免暴露邮箱是否注册
func (s *service) Authenticate(ctx context.Context, email, password string) (*Customer, error) {
	// 1. 根据邮箱查找客户
	c, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	// 2. 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, apperrors.Wrap(err, "密码验证失败")
	}

	// 3. 停用客户不能登录
	if !c.IsActive() {
		return nil, ErrCustomerInactive
	}

	return c, nil
}

// =========================================
// 辅助函数:业务规则校验
// =========================================

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 100 {
		return ErrInvalidName
	}
	return nil
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validatePasswordStrength 8-20位,必须同时包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return ErrWeakPassword
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}
