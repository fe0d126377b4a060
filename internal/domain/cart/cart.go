package cart

import (
	"context"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// Line 购物车中的一行(只表达购买意向,不占用库存)
type Line struct {
	UserID   uint
	BookID   uint
	Quantity int
}

var (
	ErrEmptyCart       = apperrors.New(apperrors.ErrCodeEmptyCart, "购物车为空")
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")
)

// Store 购物车存储
type Store interface {
	// ListItems 按BookID升序返回用户购物车
	ListItems(ctx context.Context, userID uint) ([]Line, error)

	// SetItem 设置某本书的数量(覆盖)
	SetItem(ctx context.Context, userID, bookID uint, quantity int) error

	// AddItem 在原数量上累加,返回累加后的数量
	AddItem(ctx context.Context, userID, bookID uint, delta int) (int, error)

	// RemoveItem 移除某本书,不存在时不报错
	RemoveItem(ctx context.Context, userID, bookID uint) error

	// Clear 清空购物车
	Clear(ctx context.Context, userID uint) error
}
