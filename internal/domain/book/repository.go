package book

import (
	"context"
)

// Repository 图书仓储接口(目录存储)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. LockByID/ApplyPurchase必须在事务内调用(事务通过context传递)
type Repository interface {
	// Create 新增图书
	Create(ctx context.Context, book *Book) error

	// FindByID 无锁读取
	FindByID(ctx context.Context, id uint) (*Book, error)

	// LockByID 行锁读取(SELECT ... FOR UPDATE)
	// 锁持有到事务结束;等待超时返回ErrBusy
	LockByID(ctx context.Context, id uint) (*Book, error)

	// ApplyPurchase 条件扣减库存并累加热度
	// UPDATE books SET stock = stock - ?, popularity = popularity + ?
	// WHERE id = ? AND stock >= ?
	// 未命中返回ErrStockConflict
	ApplyPurchase(ctx context.Context, id uint, quantity int) error
}
