package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 事件类型(同时作为消息路由键)
const (
	EventCreated       = "order.created"
	EventStatusChanged = "order.status_changed"
)

// Event 订单领域事件
// 只在事务提交之后发布,发布失败不影响已提交的订单
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	OrderID     uint            `json:"order_id"`
	OrderNo     string          `json:"order_no"`
	UserID      uint            `json:"user_id"`
	From        Status          `json:"from,omitempty"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemsCount  int             `json:"items_count"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewCreatedEvent 订单创建事件
func NewCreatedEvent(id string, o *Order) Event {
	return Event{
		ID:          id,
		Type:        EventCreated,
		OrderID:     o.ID,
		OrderNo:     o.OrderNo,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ItemsCount:  o.TotalItemsCount(),
		OccurredAt:  o.CreatedAt,
	}
}

// NewStatusChangedEvent 订单状态变化事件
func NewStatusChangedEvent(id string, o *Order, from Status) Event {
	return Event{
		ID:          id,
		Type:        EventStatusChanged,
		OrderID:     o.ID,
		OrderNo:     o.OrderNo,
		UserID:      o.UserID,
		From:        from,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ItemsCount:  o.TotalItemsCount(),
		OccurredAt:  o.UpdatedAt,
	}
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
