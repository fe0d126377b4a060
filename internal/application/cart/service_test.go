package cart

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/storefront/internal/domain/book"
	"github.com/xiebiao/storefront/internal/domain/cart"
)

type stubBooks map[uint]*book.Book

func (s stubBooks) Create(context.Context, *book.Book) error { return nil }

func (s stubBooks) FindByID(_ context.Context, id uint) (*book.Book, error) {
	b, ok := s[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (s stubBooks) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	return s.FindByID(ctx, id)
}

func (s stubBooks) ApplyPurchase(context.Context, uint, int) error { return nil }

type mapCart map[uint]int

func (m mapCart) ListItems(_ context.Context, userID uint) ([]cart.Line, error) {
	out := make([]cart.Line, 0, len(m))
	for id, q := range m {
		out = append(out, cart.Line{UserID: userID, BookID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out, nil
}

func (m mapCart) SetItem(_ context.Context, _, bookID uint, q int) error {
	m[bookID] = q
	return nil
}

func (m mapCart) AddItem(_ context.Context, _, bookID uint, delta int) (int, error) {
	m[bookID] += delta
	return m[bookID], nil
}

func (m mapCart) RemoveItem(_ context.Context, _, bookID uint) error {
	delete(m, bookID)
	return nil
}

func (m mapCart) Clear(context.Context, uint) error {
	for k := range m {
		delete(m, k)
	}
	return nil
}

func newService() (*Service, mapCart) {
	books := stubBooks{
		1: {ID: 1, Title: "A", Price: decimal.RequireFromString("10.00"), Stock: 5},
		2: {ID: 2, Title: "B", Price: decimal.RequireFromString("2.50"), Stock: 1},
	}
	carts := mapCart{}
	return NewService(carts, books, zerolog.Nop()), carts
}

func TestService_AddAccumulates(t *testing.T) {
	svc, carts := newService()
	ctx := context.Background()

	n, err := svc.Add(ctx, 7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Add(ctx, 7, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// 累加后超过库存
	_, err = svc.Add(ctx, 7, 1, 1)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.Equal(t, 5, carts[1])
}

func TestService_AddValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Add(ctx, 7, 1, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = svc.Add(ctx, 7, 99, 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestService_SetAndRemove(t *testing.T) {
	svc, carts := newService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, 7, 1, 4))
	assert.Equal(t, 4, carts[1])

	assert.ErrorIs(t, svc.Set(ctx, 7, 2, 2), book.ErrInsufficientStock)
	assert.ErrorIs(t, svc.Set(ctx, 7, 1, -1), cart.ErrInvalidQuantity)

	require.NoError(t, svc.Set(ctx, 7, 1, 0))
	_, ok := carts[1]
	assert.False(t, ok)

	require.NoError(t, svc.Remove(ctx, 7, 1))
}

func TestService_Get(t *testing.T) {
	svc, carts := newService()
	ctx := context.Background()
	carts[1] = 3
	carts[2] = 1
	carts[42] = 1 // 已下架

	view, err := svc.Get(ctx, 7)
	require.NoError(t, err)

	require.Len(t, view.Entries, 2)
	assert.Equal(t, "30.00", view.Entries[0].Subtotal.StringFixed(2))
	assert.Equal(t, "2.50", view.Entries[1].Subtotal.StringFixed(2))
	assert.Equal(t, 4, view.TotalItems)
	assert.Equal(t, "32.50", view.Total.StringFixed(2))

	_, ok := carts[42]
	assert.False(t, ok)
}

// removeFails RemoveItem总是失败的购物车
type removeFails struct{ mapCart }

func (removeFails) RemoveItem(context.Context, uint, uint) error {
	return errors.New("redis down")
}

func TestService_GetRemoveFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	carts := removeFails{mapCart{1: 2, 42: 1}}
	books := stubBooks{1: {ID: 1, Title: "A", Price: decimal.RequireFromString("10.00"), Stock: 5}}
	svc := NewService(carts, books, zerolog.New(&buf))

	view, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, uint(1), view.Entries[0].BookID)
	assert.Equal(t, "20.00", view.Total.StringFixed(2))

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"book_id":42`)
	assert.Contains(t, out, "redis down")
}
