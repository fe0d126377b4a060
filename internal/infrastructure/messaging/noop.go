package messaging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xiebiao/storefront/internal/domain/order"
)

// NoopPublisher 不接消息队列时使用,只记录日志
type NoopPublisher struct {
	log zerolog.Logger
}

func NewNoopPublisher(log zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, event order.Event) error {
	p.log.Debug().
		Str("type", event.Type).
		Uint("order_id", event.OrderID).
		Str("status", event.Status.String()).
		Msg("事件未投递(events.driver=none)")
	return nil
}
