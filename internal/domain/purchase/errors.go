package purchase

import (
	"github.com/xiebiao/mercadolivro/internal/domain/book"
	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

// 购买领域错误定义
var (
	// ErrEmptyBookSet 购买的图书列表为空
	ErrEmptyBookSet = apperrors.New(apperrors.ErrCodeInvalidParams, "购买的图书不能为空")

	// ErrPurchaseNotFound 购买记录不存在
	ErrPurchaseNotFound = apperrors.New(apperrors.ErrCodePurchaseNotFound, "购买记录不存在")

	// ErrEmptyNFE 发票号为空
	ErrEmptyNFE = apperrors.New(apperrors.ErrCodeInvalidParams, "发票号不能为空")

	// ErrUnsellable 图书不可售(errors.Is匹配UnsellableError)
	ErrUnsellable = apperrors.New(apperrors.ErrCodeBookUnsellable, "图书不可售")
)

// BooksNotFoundError 请求的图书全部不存在
// 只在一本都查不到时返回,部分不存在的ID会被静默忽略
// errors.Is(err, book.ErrBookNotFound) 成立
type BooksNotFoundError struct {
	BookIDs []uint
}

func (e *BooksNotFoundError) Error() string {
	return e.Unwrap().Error()
}

func (e *BooksNotFoundError) Unwrap() error {
	return apperrors.Newf(book.ErrBookNotFound.Code, "图书%v不存在", e.BookIDs)
}

// UnsellableError 购买中包含非在售图书,BookID为遍历时遇到的第一本
// errors.Is(err, ErrUnsellable) 成立
type UnsellableError struct {
	BookID uint
	Status book.Status
}

func (e *UnsellableError) Error() string {
	return e.Unwrap().Error()
}

func (e *UnsellableError) Unwrap() error {
	return apperrors.Newf(ErrUnsellable.Code, "图书%d当前状态为%s,不可购买", e.BookID, e.Status)
}
