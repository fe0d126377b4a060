package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
// 设计说明:
// 1. Order和OrderItem是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 状态变更使用 WHERE id = ? AND status = ? 的条件更新
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单(包含明细)
// 必须在事务中调用,与扣减库存一起提交
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	if err := withTx(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return classifyOrderDuplicate(err)
		}
		if isBusyError(err) {
			return apperrors.ErrBusy.WithCause(err)
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
		o.Items[i].OrderID = model.ID
	}
	return nil
}

// classifyOrderDuplicate 区分幂等键冲突和订单号冲突
// 幂等键冲突由调用方重放已有订单;订单号冲突换号重试
func classifyOrderDuplicate(err error) error {
	switch idx := duplicateIndex(err); {
	case idx == idxOrdersUserIdem:
		return order.ErrDuplicateIdempotencyKey.WithCause(err)
	case idx == idxOrdersOrderNo:
		return order.ErrDuplicateOrderNo.WithCause(err)
	default:
		return apperrors.Wrap(err, "创建订单失败")
	}
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	err := withTx(ctx, r.db).Preload("Items", orderItemsByID).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// FindByIdempotencyKey 查找用户下携带该幂等键的订单
func (r *orderRepository) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*order.Order, error) {
	var model OrderModel
	err := withTx(ctx, r.db).Preload("Items", orderItemsByID).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// ListByUserID 查询用户的订单历史
func (r *orderRepository) ListByUserID(ctx context.Context, userID uint, params order.ListParams) ([]*order.Order, int64, error) {
	var (
		models []OrderModel
		total  int64
	)

	query := withTx(ctx, r.db).Model(&OrderModel{}).Where("user_id = ?", userID)
	if params.Status != "" {
		query = query.Where("status = ?", string(params.Status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	offset := (params.Page - 1) * params.PageSize
	err := query.Preload("Items", orderItemsByID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.PageSize).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

// UpdateStatus 条件更新订单状态
// UPDATE orders SET status = ?, updated_at = ?[, shipped_at = ?][, delivered_at = ?]
// WHERE id = ? AND status = ?
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from order.Status, change order.StatusChange) error {
	fields := map[string]interface{}{
		"status":     string(change.To),
		"updated_at": change.At,
	}
	if change.ShippedAt != nil {
		fields["shipped_at"] = *change.ShippedAt
	}
	if change.DeliveredAt != nil {
		fields["delivered_at"] = *change.DeliveredAt
	}

	result := withTx(ctx, r.db).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(fields)
	if result.Error != nil {
		if isBusyError(result.Error) {
			return apperrors.ErrBusy.WithCause(result.Error)
		}
		return apperrors.Wrap(result.Error, "更新订单状态失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrStatusConflict
	}
	return nil
}

func orderItemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ID:         item.ID,
			OrderID:    item.OrderID,
			BookID:     item.BookID,
			BookTitle:  item.BookTitle,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
	}

	var key *string
	if o.IdempotencyKey != "" {
		k := o.IdempotencyKey
		key = &k
	}

	return &OrderModel{
		ID:             o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		Status:         string(o.Status),
		TotalAmount:    o.TotalAmount,
		IdempotencyKey: key,
		Items:          items,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]order.OrderItem, len(model.Items))
	for i, item := range model.Items {
		items[i] = order.OrderItem{
			ID:         item.ID,
			OrderID:    item.OrderID,
			BookID:     item.BookID,
			BookTitle:  item.BookTitle,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		}
	}

	o := &order.Order{
		ID:          model.ID,
		OrderNo:     model.OrderNo,
		UserID:      model.UserID,
		Status:      order.Status(model.Status),
		TotalAmount: model.TotalAmount,
		Items:       items,
		ShippedAt:   model.ShippedAt,
		DeliveredAt: model.DeliveredAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if model.IdempotencyKey != nil {
		o.IdempotencyKey = *model.IdempotencyKey
	}
	return o
}
