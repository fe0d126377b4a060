package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/pkg/mq"
)

// RabbitPublisher 通过RabbitMQ Topic Exchange发布订单事件
// 路由键即事件类型(order.created / order.status_changed)
type RabbitPublisher struct {
	pub *mq.Publisher
}

// NewRabbitPublisher 连接RabbitMQ
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	pub, err := mq.NewPublisher(url, exchange, "topic")
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{pub: pub}, nil
}

// Publish 发布事件
func (p *RabbitPublisher) Publish(ctx context.Context, event order.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}
	return p.pub.PublishRaw(ctx, event.Type, body, event.ID)
}

// Close 关闭连接
func (p *RabbitPublisher) Close() error {
	return p.pub.Close()
}
