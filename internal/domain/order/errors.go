package order

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrIllegalTransition 当前状态不允许此操作
	ErrIllegalTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此操作")

	// ErrStatusConflict 条件更新未命中(状态已被其他请求修改)
	ErrStatusConflict = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态已变化")

	// ErrDuplicateIdempotencyKey 幂等键冲突(并发重复提交)
	ErrDuplicateIdempotencyKey = apperrors.New(apperrors.ErrCodeDuplicateEntry, "重复提交")

	// ErrDuplicateOrderNo 订单号撞号,换号重试即可
	ErrDuplicateOrderNo = apperrors.New(apperrors.ErrCodeInternal, "订单号冲突")

	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")
	ErrInvalidQuantity   = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")
	ErrInvalidStatus     = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的订单状态")
)
