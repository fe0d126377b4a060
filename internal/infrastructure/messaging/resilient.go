package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/pkg/circuitbreaker"
	"github.com/xiebiao/storefront/pkg/metrics"
)

// ResilientPublisher 给底层发布者加上超时、熔断、指标
// 设计说明:
// 1. 事件在事务提交后发布,发布失败只记录日志,不回滚订单
// 2. 消息队列故障时熔断,请求不再等待超时
type ResilientPublisher struct {
	next    order.EventPublisher
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	log     zerolog.Logger
}

// NewResilientPublisher 包装发布者
func NewResilientPublisher(next order.EventPublisher, timeout time.Duration, log zerolog.Logger) *ResilientPublisher {
	breaker := circuitbreaker.NewCircuitBreaker("order-events", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetBreakerState(name, int(to))
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("熔断器状态变化")
		},
	})
	return &ResilientPublisher{next: next, breaker: breaker, timeout: timeout, log: log}
}

// Publish 发布事件
func (p *ResilientPublisher) Publish(ctx context.Context, event order.Event) error {
	// 与请求生命周期解耦:客户端断开不应取消已提交订单的事件
	ctx = context.WithoutCancel(ctx)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.breaker.Execute(func() error {
		return p.next.Publish(ctx, event)
	})

	switch {
	case err == nil:
		metrics.ObserveEvent(event.Type, "success")
	case errors.Is(err, circuitbreaker.ErrOpenState), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		metrics.ObserveEvent(event.Type, "rejected")
		p.log.Warn().Str("type", event.Type).Uint("order_id", event.OrderID).Msg("熔断中,事件丢弃")
	default:
		metrics.ObserveEvent(event.Type, "failure")
		p.log.Error().Err(err).Str("type", event.Type).Uint("order_id", event.OrderID).Msg("事件发布失败")
	}
	return err
}

// State 熔断器状态
func (p *ResilientPublisher) State() circuitbreaker.State {
	return p.breaker.State()
}
