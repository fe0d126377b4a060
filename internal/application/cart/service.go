package cart

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/storefront/internal/domain/book"
	"github.com/xiebiao/storefront/internal/domain/cart"
)

// Service 购物车用例
// 加入购物车时按当前库存做一次提示性校验,不占用库存;
// 真正的库存校验在结算事务内完成
type Service struct {
	carts cart.Store
	books book.Repository
	log   zerolog.Logger
}

// NewService 创建购物车用例
func NewService(carts cart.Store, books book.Repository, log zerolog.Logger) *Service {
	return &Service{
		carts: carts,
		books: books,
		log:   log.With().Str("component", "cart").Logger(),
	}
}

// Entry 购物车条目(附带当前书名和价格,价格以结算时为准)
type Entry struct {
	BookID    uint
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
	Stock     int
}

// View 购物车视图
type View struct {
	Entries    []Entry
	TotalItems int
	Total      decimal.Decimal
}

// Get 查询购物车
// 已下架(不存在)的图书从购物车中移除
func (s *Service) Get(ctx context.Context, userID uint) (*View, error) {
	lines, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{Entries: make([]Entry, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		b, err := s.books.FindByID(ctx, l.BookID)
		if errors.Is(err, book.ErrBookNotFound) {
			// 清理失败不影响本次查询,下次查询会再试
			if err := s.carts.RemoveItem(ctx, userID, l.BookID); err != nil {
				s.log.Warn().Err(err).Uint("user_id", userID).Uint("book_id", l.BookID).Msg("移除已下架图书失败")
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		subtotal := b.Subtotal(l.Quantity)
		view.Entries = append(view.Entries, Entry{
			BookID:    b.ID,
			Title:     b.Title,
			UnitPrice: b.Price,
			Quantity:  l.Quantity,
			Subtotal:  subtotal,
			Stock:     b.Stock,
		})
		view.TotalItems += l.Quantity
		view.Total = view.Total.Add(subtotal)
	}
	return view, nil
}

// Add 加入购物车(在已有数量上累加)
func (s *Service) Add(ctx context.Context, userID, bookID uint, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, cart.ErrInvalidQuantity
	}
	b, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return 0, err
	}

	lines, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		return 0, err
	}
	current := 0
	for _, l := range lines {
		if l.BookID == bookID {
			current = l.Quantity
			break
		}
	}
	if err := b.CanSupply(current + quantity); err != nil {
		return 0, err
	}

	return s.carts.AddItem(ctx, userID, bookID, quantity)
}

// Set 修改数量,0表示移除
func (s *Service) Set(ctx context.Context, userID, bookID uint, quantity int) error {
	if quantity < 0 {
		return cart.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.carts.RemoveItem(ctx, userID, bookID)
	}

	b, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return err
	}
	if err := b.CanSupply(quantity); err != nil {
		return err
	}
	return s.carts.SetItem(ctx, userID, bookID, quantity)
}

// Remove 移除某本书
func (s *Service) Remove(ctx context.Context, userID, bookID uint) error {
	return s.carts.RemoveItem(ctx, userID, bookID)
}
