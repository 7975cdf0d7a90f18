package customer

import (
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// 客户领域错误定义
var (
	// ErrCustomerNotFound 客户不存在
	ErrCustomerNotFound = apperrors.New(apperrors.ErrCodeCustomerNotFound, "客户不存在")

	// ErrEmailDuplicate 邮箱已被注册
	ErrEmailDuplicate = apperrors.New(apperrors.ErrCodeEmailDuplicate, "邮箱已被注册")

	// ErrCustomerInactive 客户已停用
	ErrCustomerInactive = apperrors.New(apperrors.ErrCodeCustomerBlocked, "客户已停用")

	// ErrInvalidEmail 邮箱格式不正确
	ErrInvalidEmail = apperrors.New(apperrors.ErrCodeInvalidParams, "邮箱格式不正确")

	// ErrInvalidName 姓名长度不合法
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "姓名长度应为2-100个字符")

	// ErrWeakPassword 密码强度不足
	ErrWeakPassword = apperrors.New(apperrors.ErrCodeInvalidParams, "密码需为8-20位且同时包含字母和数字")
)
