package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stockDetail struct {
	available int
}

func (e *stockDetail) Error() string       { return "stock" }
func (e *stockDetail) Detail() interface{} { return e.available }
func (e *stockDetail) Unwrap() error       { return ErrBusy }

func TestAppError_Is(t *testing.T) {
	wrapped := ErrBusy.WithCause(errors.New("lock wait timeout"))

	assert.True(t, errors.Is(wrapped, ErrBusy), "WithCause后仍应匹配原错误")
	assert.False(t, errors.Is(wrapped, ErrInternal))
	assert.Contains(t, wrapped.Error(), "lock wait timeout")
}

func TestGetAppError(t *testing.T) {
	t.Run("AppError直接返回", func(t *testing.T) {
		err := fmt.Errorf("外层: %w", ErrInvalidParams)
		assert.Equal(t, ErrCodeInvalidParams, GetAppError(err).Code)
	})

	t.Run("普通错误包装为内部错误", func(t *testing.T) {
		appErr := GetAppError(errors.New("boom"))
		assert.Equal(t, ErrCodeInternal, appErr.Code)
		assert.EqualError(t, appErr.Unwrap(), "boom")
	})
}

func TestGetDetail(t *testing.T) {
	err := fmt.Errorf("购买失败: %w", &stockDetail{available: 2})

	assert.Equal(t, 2, GetDetail(err))
	assert.Equal(t, ErrCodeBusy, GetAppError(err).Code)
	assert.Nil(t, GetDetail(ErrBusy))
}
