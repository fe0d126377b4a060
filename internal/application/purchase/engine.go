package purchase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/storefront/internal/domain/book"
	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

const tracerName = "storefront/purchase"

// maxOrderNoAttempts 订单号撞号时的最多尝试次数
const maxOrderNoAttempts = 3

// Transactor 事务边界
// fn内通过ctx执行的仓储操作处于同一事务;fn返回error时回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options 引擎参数
type Options struct {
	// LockTimeout 一次购买事务的总时限(含等待行锁)
	LockTimeout time.Duration
	// MaxQuantity 单本书单次购买上限
	MaxQuantity int
}

// Engine 购买引擎
// 一次购买在单个事务内完成:锁行 → 锁内校验库存 → 条件扣减库存/累加热度 → 写订单(价格快照) → 提交
// 任何一步失败整体回滚,库存、热度、订单三者要么全部生效要么全部不生效
type Engine struct {
	books  book.Repository
	orders order.Repository
	tx     Transactor
	events order.EventPublisher
	log    zerolog.Logger
	opts   Options
}

// NewEngine 创建购买引擎
func NewEngine(
	books book.Repository,
	orders order.Repository,
	tx Transactor,
	events order.EventPublisher,
	log zerolog.Logger,
	opts Options,
) *Engine {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = 999
	}
	return &Engine{
		books:  books,
		orders: orders,
		tx:     tx,
		events: events,
		log:    log.With().Str("component", "purchase").Logger(),
		opts:   opts,
	}
}

// Item 购买明细
type Item struct {
	BookID   uint
	Quantity int
}

// PurchaseRequest 单本购买
type PurchaseRequest struct {
	UserID         uint
	BookID         uint
	Quantity       int
	IdempotencyKey string // 可选,同一用户内唯一
}

// PurchaseResult 单本购买结果
type PurchaseResult struct {
	Order      *order.Order
	Record     order.Record
	Stock      int  // 购买后的库存
	Popularity int  // 购买后的热度
	Replayed   bool // 幂等重放,返回的是之前的订单
}

// CheckoutRequest 多本结算
type CheckoutRequest struct {
	UserID         uint
	Items          []Item
	IdempotencyKey string
}

// BookState 购买后的图书状态
type BookState struct {
	BookID     uint
	Stock      int
	Popularity int
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	Order    *order.Order
	Books    []BookState // 按BookID升序
	Replayed bool
}

// Purchase 购买单本图书
func (e *Engine) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	res, err := e.execute(ctx, "single", req.UserID, []Item{{BookID: req.BookID, Quantity: req.Quantity}}, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	out := &PurchaseResult{Order: res.Order, Replayed: res.Replayed}
	if records := res.Order.Records(); len(records) > 0 {
		out.Record = records[0]
	}
	if len(res.Books) > 0 {
		out.Stock = res.Books[0].Stock
		out.Popularity = res.Books[0].Popularity
	}
	return out, nil
}

// Checkout 多本结算
// 策略:全部成功或全部失败。相同图书合并数量,按BookID升序加锁避免死锁;
// 任意一本库存不足则整单回滚并返回该书的可用库存
func (e *Engine) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	return e.execute(ctx, "checkout", req.UserID, req.Items, req.IdempotencyKey)
}

// Replay 按幂等键返回已提交的订单和相关图书的当前状态
// key为空或没有对应订单时返回ErrOrderNotFound
func (e *Engine) Replay(ctx context.Context, userID uint, key string) (*CheckoutResult, error) {
	if key == "" {
		return nil, order.ErrOrderNotFound
	}
	ctx, span := tracing.StartSpan(ctx, tracerName, "Engine.replay")
	defer span.End()
	span.SetAttributes(attribute.Int("user_id", int(userID)))
	start := time.Now()

	res, err := e.replay(ctx, userID, key)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if res == nil {
		return nil, order.ErrOrderNotFound
	}
	metrics.ObservePurchase("checkout", resultLabel(res, nil), time.Since(start))
	span.SetAttributes(attribute.Bool("replayed", true))
	return res, nil
}

func (e *Engine) execute(ctx context.Context, kind string, userID uint, items []Item, key string) (*CheckoutResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "Engine."+kind)
	defer span.End()
	span.SetAttributes(
		attribute.Int("user_id", int(userID)),
		attribute.Int("items", len(items)),
		attribute.Bool("idempotent", key != ""),
	)

	done := metrics.TrackPurchaseInProgress()
	defer done()
	start := time.Now()

	res, err := e.run(ctx, userID, items, key)

	metrics.ObservePurchase(kind, resultLabel(res, err), time.Since(start))
	if err != nil {
		tracing.RecordError(span, err)
		e.logFailure(userID, items, err)
		return nil, err
	}
	if res.Replayed {
		span.SetAttributes(attribute.Bool("replayed", true))
		return res, nil
	}

	metrics.AddBooksSold(res.Order.TotalItemsCount())
	e.log.Info().
		Uint("user_id", userID).
		Uint("order_id", res.Order.ID).
		Str("order_no", res.Order.OrderNo).
		Str("total", res.Order.TotalAmount.StringFixed(2)).
		Int("quantity", res.Order.TotalItemsCount()).
		Dur("elapsed", time.Since(start)).
		Msg("购买成功")

	// 事务已提交、行锁已释放,之后才发布事件
	if err := e.events.Publish(ctx, order.NewCreatedEvent(uuid.NewString(), res.Order)); err != nil {
		e.log.Warn().Err(err).Uint("order_id", res.Order.ID).Msg("订单创建事件发布失败")
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, userID uint, items []Item, key string) (*CheckoutResult, error) {
	// 1. 参数校验
	lines, err := e.normalize(userID, items)
	if err != nil {
		return nil, err
	}

	// 2. 幂等:已有订单直接返回,不再加锁
	if key != "" {
		if res, err := e.replay(ctx, userID, key); res != nil || err != nil {
			return res, err
		}
	}

	// 3. 事务;订单号撞号时整笔回滚后换号重试
	for attempt := 1; attempt <= maxOrderNoAttempts; attempt++ {
		var res *CheckoutResult
		res, err = e.attempt(ctx, userID, lines, key)
		if err == nil {
			return res, nil
		}

		// 并发的同键请求:唯一索引冲突回滚后返回胜出者的订单
		if errors.Is(err, order.ErrDuplicateIdempotencyKey) {
			winner, rerr := e.replay(ctx, userID, key)
			if rerr != nil {
				return nil, rerr
			}
			if winner != nil {
				return winner, nil
			}
			// 胜出者已回滚,重新走一遍
			continue
		}
		if errors.Is(err, order.ErrDuplicateOrderNo) {
			e.log.Warn().Err(err).Uint("user_id", userID).Int("attempt", attempt).Msg("订单号冲突,换号重试")
			continue
		}
		return nil, err
	}
	return nil, err
}

// attempt 一次带总时限的事务,锁等待超过时限返回ErrBusy
func (e *Engine) attempt(ctx context.Context, userID uint, lines []Item, key string) (*CheckoutResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, e.opts.LockTimeout)
	defer cancel()

	var result *CheckoutResult
	err := e.tx.Transaction(txCtx, func(txCtx context.Context) error {
		res, err := e.purchaseLocked(txCtx, userID, lines, key)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err == nil {
		return result, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, apperrors.ErrBusy) {
		return nil, apperrors.ErrBusy.WithCause(err)
	}
	return nil, err
}

// purchaseLocked 事务内的购买步骤
func (e *Engine) purchaseLocked(ctx context.Context, userID uint, lines []Item, key string) (*CheckoutResult, error) {
	// 1. 按BookID升序加锁并在锁内校验库存
	locked := make([]*book.Book, len(lines))
	for i, l := range lines {
		b, err := e.books.LockByID(ctx, l.BookID)
		if err != nil {
			return nil, err
		}
		if err := b.CanSupply(l.Quantity); err != nil {
			return nil, err
		}
		locked[i] = b
	}

	// 2. 条件扣减库存、累加热度;价格和书名取锁内读到的值
	orderItems := make([]order.OrderItem, len(lines))
	states := make([]BookState, len(lines))
	for i, l := range lines {
		b := locked[i]
		if err := e.books.ApplyPurchase(ctx, b.ID, l.Quantity); err != nil {
			if errors.Is(err, book.ErrStockConflict) {
				// 行锁下不应出现;按库存不足处理
				return nil, &book.InsufficientStockError{BookID: b.ID, Requested: l.Quantity, Available: b.Stock}
			}
			return nil, err
		}
		if err := b.ApplyPurchase(l.Quantity); err != nil {
			return nil, err
		}

		item, err := order.NewOrderItem(b.ID, b.Title, b.Price, l.Quantity)
		if err != nil {
			return nil, err
		}
		orderItems[i] = item
		states[i] = BookState{BookID: b.ID, Stock: b.Stock, Popularity: b.Popularity}
	}

	// 3. 写订单
	o, err := order.NewOrder(order.GenerateOrderNo(), userID, orderItems, key)
	if err != nil {
		return nil, err
	}
	if err := e.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	return &CheckoutResult{Order: o, Books: states}, nil
}

// replay 返回幂等键对应的已有订单;不存在时返回(nil, nil)
func (e *Engine) replay(ctx context.Context, userID uint, key string) (*CheckoutResult, error) {
	existing, err := e.orders.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, order.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	states := make([]BookState, 0, len(existing.Items))
	for _, item := range existing.Items {
		b, err := e.books.FindByID(ctx, item.BookID)
		if err != nil {
			return nil, err
		}
		states = append(states, BookState{BookID: b.ID, Stock: b.Stock, Popularity: b.Popularity})
	}

	e.log.Info().Uint("user_id", userID).Uint("order_id", existing.ID).Str("idempotency_key", key).Msg("幂等重放")
	return &CheckoutResult{Order: existing, Books: states, Replayed: true}, nil
}

// normalize 校验并合并明细,按BookID升序
func (e *Engine) normalize(userID uint, items []Item) ([]Item, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	if len(items) == 0 {
		return nil, order.ErrInvalidOrderItems
	}

	merged := make(map[uint]int, len(items))
	for _, it := range items {
		if it.BookID == 0 {
			return nil, book.ErrBookNotFound
		}
		if it.Quantity <= 0 {
			return nil, book.ErrInvalidQuantity
		}
		merged[it.BookID] += it.Quantity
	}

	lines := make([]Item, 0, len(merged))
	for id, qty := range merged {
		if qty > e.opts.MaxQuantity {
			return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "单本购买数量超过上限")
		}
		lines = append(lines, Item{BookID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].BookID < lines[j].BookID })
	return lines, nil
}

func (e *Engine) logFailure(userID uint, items []Item, err error) {
	ev := e.log.Info()
	switch {
	case errors.Is(err, apperrors.ErrBusy):
		ev = e.log.Warn()
	case apperrors.GetAppError(err).Code >= apperrors.ErrCodeInternal:
		ev = e.log.Error()
	}
	ev.Err(err).Uint("user_id", userID).Int("items", len(items)).Msg("购买失败")
}

func resultLabel(res *CheckoutResult, err error) string {
	switch {
	case err == nil && res != nil && res.Replayed:
		return "replayed"
	case err == nil:
		return "success"
	case errors.Is(err, book.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, apperrors.ErrBusy):
		return "busy"
	case errors.Is(err, book.ErrBookNotFound):
		return "not_found"
	case apperrors.GetAppError(err).Code >= apperrors.ErrCodeInvalidParams && apperrors.GetAppError(err).Code < apperrors.ErrCodeInternal:
		return "invalid"
	default:
		return "error"
	}
}
