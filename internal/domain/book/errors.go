package book

import (
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrBookNotUpdatable 图书当前状态不允许修改
	// 实际返回的错误消息中带有具体状态,errors.Is按错误码匹配
	ErrBookNotUpdatable = apperrors.New(apperrors.ErrCodeBookNotEditable, "图书当前状态不允许修改")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")

	// ErrInvalidName 无效的书名
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")

	// ErrInvalidStatus 未知的图书状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的图书状态")

	// ErrForbidden 无权操作此图书
	ErrForbidden = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此图书")
)

func newNotEditableError(status Status) error {
	return apperrors.Newf(apperrors.ErrCodeBookNotEditable, "图书状态为%s,不允许修改", status)
}
