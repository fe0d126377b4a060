package book

import (
	"fmt"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrStockConflict 条件扣减未命中(WHERE stock >= ?不成立)
	ErrStockConflict = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存已变化,扣减失败")

	ErrInvalidPrice    = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")
	ErrInvalidStock    = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")
)

// InsufficientStockError 库存不足(携带明细)
// errors.Is(err, ErrInsufficientStock) 成立
type InsufficientStockError struct {
	BookID    uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("图书%d库存不足: 需要%d, 可用%d", e.BookID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// Detail 响应data字段
func (e *InsufficientStockError) Detail() interface{} {
	return map[string]interface{}{
		"book_id":   e.BookID,
		"requested": e.Requested,
		"available": e.Available,
	}
}
