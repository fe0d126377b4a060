package order

import (
	"context"
)

// Repository 订单仓储接口(订单账本)
// 设计说明:
// 1. Create必须与扣减库存处于同一事务(通过context传递)
// 2. UpdateStatus是条件更新,并发修改时只有一个请求能成功
type Repository interface {
	// Create 创建订单(包含订单明细)
	// 同一用户的幂等键重复时返回ErrDuplicateIdempotencyKey
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单(包含订单明细)
	FindByID(ctx context.Context, id uint) (*Order, error)

	// FindByIdempotencyKey 查找用户下携带该幂等键的订单
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error)

	// ListByUserID 查询用户的订单历史
	// 按created_at DESC, id DESC排序,结果稳定
	ListByUserID(ctx context.Context, userID uint, params ListParams) ([]*Order, int64, error)

	// UpdateStatus 条件更新状态
	// UPDATE orders SET status = ? ... WHERE id = ? AND status = ?
	// 未命中返回ErrStatusConflict
	UpdateStatus(ctx context.Context, id uint, from Status, change StatusChange) error
}

// ListParams 订单历史查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Status   Status // 为空表示不过滤
}
