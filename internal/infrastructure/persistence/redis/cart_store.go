package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/storefront/internal/domain/cart"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// CartStore 购物车存储(Redis Hash)
// 设计说明:
// 1. 每个用户一个Hash: cart:{userID}:items, field=bookID, value=数量
// 2. 购物车只是购买意向,不占库存;结算时由购买引擎在事务内校验
// 3. 设置了ttl时每次写入刷新过期时间
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore 创建购物车存储
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

var _ cart.Store = (*CartStore)(nil)

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d:items", userID)
}

// ListItems 读取购物车(按BookID升序)
func (s *CartStore) ListItems(ctx context.Context, userID uint) ([]cart.Line, error) {
	items, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, apperrors.ErrRedisError.WithCause(err)
	}

	lines := make([]cart.Line, 0, len(items))
	for field, value := range items {
		bookID, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, apperrors.Wrapf(err, "购物车数据损坏: book_id=%s", field)
		}
		qty, err := strconv.Atoi(value)
		if err != nil {
			return nil, apperrors.Wrapf(err, "购物车数据损坏: quantity=%s", value)
		}
		if qty <= 0 {
			continue
		}
		lines = append(lines, cart.Line{UserID: userID, BookID: uint(bookID), Quantity: qty})
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].BookID < lines[j].BookID })
	return lines, nil
}

// SetItem 覆盖某本书的数量
func (s *CartStore) SetItem(ctx context.Context, userID, bookID uint, quantity int) error {
	if quantity <= 0 {
		return cart.ErrInvalidQuantity
	}
	key := cartKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, strconv.FormatUint(uint64(bookID), 10), quantity)
		s.touch(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// addScript 累加数量,结果<=0时删除该字段
var addScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return n
`)

// AddItem 累加数量(原子)
func (s *CartStore) AddItem(ctx context.Context, userID, bookID uint, delta int) (int, error) {
	if delta == 0 {
		return 0, cart.ErrInvalidQuantity
	}
	n, err := addScript.Run(ctx, s.client,
		[]string{cartKey(userID)},
		strconv.FormatUint(uint64(bookID), 10), delta, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return 0, apperrors.ErrRedisError.WithCause(err)
	}
	return n, nil
}

// RemoveItem 移除某本书
func (s *CartStore) RemoveItem(ctx context.Context, userID, bookID uint) error {
	if err := s.client.HDel(ctx, cartKey(userID), strconv.FormatUint(uint64(bookID), 10)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// Clear 清空购物车
func (s *CartStore) Clear(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

func (s *CartStore) touch(ctx context.Context, pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.PExpire(ctx, key, s.ttl)
	}
}
