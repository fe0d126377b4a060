package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

const tracerName = "storefront/order"

// Lifecycle 订单状态流转用例
//
// 每个操作都是:读取当前状态 → 校验流转表 → 条件更新(WHERE status = 读到的状态)。
// 并发修改同一订单时只有一个请求能命中条件更新,其余请求重新读取后
// 按最新状态返回ErrIllegalTransition,不会出现两个操作都成功的情况。
//
// 取消订单不回补库存,库存只在购买时变化。
type Lifecycle struct {
	orders order.Repository
	events order.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewLifecycle 创建订单状态流转用例
func NewLifecycle(orders order.Repository, events order.EventPublisher, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		orders: orders,
		events: events,
		log:    log.With().Str("component", "order_lifecycle").Logger(),
		now:    time.Now,
	}
}

// Confirm pending → confirmed
func (l *Lifecycle) Confirm(ctx context.Context, orderID uint) (*order.Order, error) {
	return l.transition(ctx, "confirm", orderID, order.StatusConfirmed, nil)
}

// StartProcessing confirmed → processing
func (l *Lifecycle) StartProcessing(ctx context.Context, orderID uint) (*order.Order, error) {
	return l.transition(ctx, "process", orderID, order.StatusProcessing, nil)
}

// Ship processing → shipped,记录发货时间
func (l *Lifecycle) Ship(ctx context.Context, orderID uint) (*order.Order, error) {
	return l.transition(ctx, "ship", orderID, order.StatusShipped, nil)
}

// Deliver shipped → delivered,记录送达时间
func (l *Lifecycle) Deliver(ctx context.Context, orderID uint) (*order.Order, error) {
	return l.transition(ctx, "deliver", orderID, order.StatusDelivered, nil)
}

// Cancel pending/confirmed → cancelled(运营操作,不校验归属)
func (l *Lifecycle) Cancel(ctx context.Context, orderID uint) (*order.Order, error) {
	return l.transition(ctx, "cancel", orderID, order.StatusCancelled, nil)
}

// CancelByOwner 用户取消自己的订单
// 订单不属于该用户时按不存在处理,不暴露其他用户的订单
func (l *Lifecycle) CancelByOwner(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	return l.transition(ctx, "cancel", orderID, order.StatusCancelled, func(o *order.Order) error {
		if !o.IsOwnedBy(userID) {
			return order.ErrOrderNotFound
		}
		return nil
	})
}

func (l *Lifecycle) transition(
	ctx context.Context,
	action string,
	orderID uint,
	to order.Status,
	check func(*order.Order) error,
) (*order.Order, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Lifecycle."+action)
	defer span.End()
	span.SetAttributes(attribute.Int("order_id", int(orderID)), attribute.String("to", to.String()))

	o, from, err := l.apply(ctx, orderID, to, check)
	metrics.ObserveTransition(action, transitionResult(err))
	if err != nil {
		tracing.RecordError(span, err)
		l.log.Info().Err(err).Str("action", action).Uint("order_id", orderID).Msg("订单状态流转失败")
		return nil, err
	}

	l.log.Info().
		Str("action", action).
		Uint("order_id", o.ID).
		Str("from", from.String()).
		Str("to", o.Status.String()).
		Msg("订单状态已更新")

	if err := l.events.Publish(ctx, order.NewStatusChangedEvent(uuid.NewString(), o, from)); err != nil {
		l.log.Warn().Err(err).Uint("order_id", o.ID).Msg("订单状态事件发布失败")
	}
	return o, nil
}

func (l *Lifecycle) apply(ctx context.Context, orderID uint, to order.Status, check func(*order.Order) error) (*order.Order, order.Status, error) {
	o, err := l.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if check != nil {
		if err := check(o); err != nil {
			return nil, "", err
		}
	}

	from := o.Status
	if !o.CanTransitionTo(to) {
		return nil, "", order.ErrIllegalTransition
	}

	change := order.NewStatusChange(to, l.now())
	if err := l.orders.UpdateStatus(ctx, o.ID, from, change); err != nil {
		if !errors.Is(err, order.ErrStatusConflict) {
			return nil, "", err
		}
		// 被并发请求抢先修改:订单被删除则不存在,否则按新状态视为非法流转
		if _, ferr := l.orders.FindByID(ctx, orderID); ferr != nil {
			return nil, "", ferr
		}
		return nil, "", order.ErrIllegalTransition
	}

	o.Apply(change)
	return o, from, nil
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, order.ErrIllegalTransition):
		return "illegal"
	case errors.Is(err, order.ErrOrderNotFound):
		return "not_found"
	default:
		return "error"
	}
}
