package book

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T, stock int) *Book {
	t.Helper()
	b, err := NewBook("9787115428028", "Go语言实战", "William Kennedy", decimal.RequireFromString("900.00"), stock)
	require.NoError(t, err)
	b.ID = 42
	return b
}

func TestNewBook_Validation(t *testing.T) {
	_, err := NewBook("isbn", "t", "a", decimal.NewFromInt(-1), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewBook("isbn", "t", "a", decimal.NewFromInt(1), -1)
	assert.ErrorIs(t, err, ErrInvalidStock)
}

func TestBook_CanSupply(t *testing.T) {
	b := newTestBook(t, 5)

	assert.NoError(t, b.CanSupply(5))
	assert.ErrorIs(t, b.CanSupply(0), ErrInvalidQuantity)

	err := b.CanSupply(6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, uint(42), stockErr.BookID)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)
}

func TestBook_ApplyPurchase(t *testing.T) {
	b := newTestBook(t, 5)

	require.NoError(t, b.ApplyPurchase(3))
	assert.Equal(t, 2, b.Stock)
	assert.Equal(t, 3, b.Popularity)

	// 失败时不改变状态
	assert.ErrorIs(t, b.ApplyPurchase(3), ErrInsufficientStock)
	assert.Equal(t, 2, b.Stock)
	assert.Equal(t, 3, b.Popularity)
}

func TestBook_Subtotal(t *testing.T) {
	b := newTestBook(t, 5)
	assert.Equal(t, "2700.00", b.Subtotal(3).StringFixed(2))
}
