package purchase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/order"
)

// CartCheckout 购物车结算用例
// 流程:
// 1. 幂等键命中已有订单时直接返回(购物车可能已经被清空)
// 2. 读取购物车,为空返回ErrEmptyCart
// 3. 调用Engine.Checkout(全部成功或全部失败)
// 4. 提交成功后清空购物车;清空失败只记日志,订单已生效
type CartCheckout struct {
	carts  cart.Store
	engine *Engine
	log    zerolog.Logger
}

// NewCartCheckout 创建购物车结算用例
func NewCartCheckout(carts cart.Store, engine *Engine, log zerolog.Logger) *CartCheckout {
	return &CartCheckout{
		carts:  carts,
		engine: engine,
		log:    log.With().Str("component", "cart_checkout").Logger(),
	}
}

// Execute 结算用户购物车
func (uc *CartCheckout) Execute(ctx context.Context, userID uint, idempotencyKey string) (*CheckoutResult, error) {
	if idempotencyKey != "" {
		res, err := uc.engine.Replay(ctx, userID, idempotencyKey)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, order.ErrOrderNotFound) {
			return nil, err
		}
	}

	lines, err := uc.carts.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, cart.ErrEmptyCart
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{BookID: l.BookID, Quantity: l.Quantity}
	}

	res, err := uc.engine.Checkout(ctx, CheckoutRequest{
		UserID:         userID,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.carts.Clear(ctx, userID); err != nil {
		uc.log.Warn().Err(err).Uint("user_id", userID).Uint("order_id", res.Order.ID).Msg("清空购物车失败")
	}
	return res, nil
}
