package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeBookNotFound, "图书不存在")
	formatted := Newf(ErrCodeBookNotFound, "图书%v不存在", []uint{999})

	if !errors.Is(formatted, sentinel) {
		t.Fatalf("相同错误码应该匹配: %v", formatted)
	}

	wrapped := fmt.Errorf("查询失败: %w", formatted)
	if !errors.Is(wrapped, sentinel) {
		t.Errorf("包装后仍应匹配: %v", wrapped)
	}

	if errors.Is(formatted, ErrInvalidParams) {
		t.Errorf("不同错误码不应匹配")
	}
}

func TestGetAppError(t *testing.T) {
	appErr := GetAppError(fmt.Errorf("outer: %w", ErrForbidden))
	if appErr.Code != ErrCodeForbidden {
		t.Errorf("期望错误码%d, 实际%d", ErrCodeForbidden, appErr.Code)
	}

	plain := GetAppError(errors.New("boom"))
	if plain.Code != ErrCodeInternal {
		t.Errorf("普通错误应包装为Internal, 实际%d", plain.Code)
	}
	if plain.Err == nil || plain.Err.Error() != "boom" {
		t.Errorf("内部错误丢失: %v", plain.Err)
	}
}

func TestAppError_Error(t *testing.T) {
	err := Wrap(errors.New("connection refused"), "数据库错误")
	want := "[50000] 数据库错误: connection refused"
	if err.Error() != want {
		t.Errorf("期望%q, 实际%q", want, err.Error())
	}
}

func TestWrapCode(t *testing.T) {
	cause := errors.New("channel closed")
	err := WrapCode(cause, ErrCodeBrokerError, "发布购买事件失败")

	if err.Code != ErrCodeBrokerError {
		t.Errorf("期望错误码%d, 实际%d", ErrCodeBrokerError, err.Code)
	}
	if !errors.Is(err, ErrBrokerError) {
		t.Errorf("应匹配ErrBrokerError: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("应保留内部错误: %v", err)
	}
}
