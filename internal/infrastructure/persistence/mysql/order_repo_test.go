package mysql

import (
	"context"
	"errors"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

func dupErr(key string) error {
	return &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key '" + key + "'"}
}

func TestClassifyOrderDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"幂等键(MySQL 8)", dupErr("orders.idx_orders_user_idem"), order.ErrDuplicateIdempotencyKey},
		{"幂等键(MySQL 5.7)", dupErr("idx_orders_user_idem"), order.ErrDuplicateIdempotencyKey},
		{"订单号", dupErr("orders.idx_orders_order_no"), order.ErrDuplicateOrderNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOrderDuplicate(tt.err)
			assert.ErrorIs(t, got, tt.want)
			var myErr *gomysql.MySQLError
			assert.True(t, errors.As(got, &myErr), "应保留驱动原始错误")
		})
	}

	other := apperrors.GetAppError(classifyOrderDuplicate(dupErr("orders.PRIMARY")))
	assert.Equal(t, apperrors.ErrCodeInternal, other.Code)
	assert.Equal(t, "创建订单失败", other.Message)

	// 订单号冲突不能被当成幂等键冲突
	assert.False(t, errors.Is(classifyOrderDuplicate(dupErr("orders.idx_orders_order_no")), order.ErrDuplicateIdempotencyKey))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, isDuplicateError(dupErr("orders.idx_orders_order_no")))
	assert.False(t, isDuplicateError(&gomysql.MySQLError{Number: 1205}))
	assert.True(t, isBusyError(&gomysql.MySQLError{Number: 1205}))
	assert.True(t, isBusyError(&gomysql.MySQLError{Number: 1213}))
	assert.True(t, isBusyError(context.DeadlineExceeded))
	assert.Equal(t, "", duplicateIndex(errors.New("boom")))
}
