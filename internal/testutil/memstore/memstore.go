// Package memstore 内存版目录、订单账本和购物车,供测试使用
//
// 行为与MySQL/Redis实现保持一致:
//   - 行锁用容量为1的channel模拟,等待受ctx约束,超时返回ErrBusy
//   - Transaction失败时按快照回滚图书和本事务创建的订单
//   - ApplyPurchase、UpdateStatus都是条件更新
//   - 同一用户的幂等键唯一,订单号唯一
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/storefront/internal/domain/book"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// Store 内存目录+订单账本
type Store struct {
	mu          sync.Mutex
	books       map[uint]*book.Book
	orders      map[uint]*order.Order
	nextOrderID uint
	locks       map[uint]chan struct{}
	createErr   error
	createOnce  []error
}

// New 创建空的Store
func New() *Store {
	return &Store{
		books:  make(map[uint]*book.Book),
		orders: make(map[uint]*order.Order),
		locks:  make(map[uint]chan struct{}),
	}
}

// AddBook 写入一本书,price为两位小数的字符串
func (s *Store) AddBook(id uint, title, price string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[id] = &book.Book{
		ID:    id,
		Title: title,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

// SetPopularity 设置图书热度
func (s *Store) SetPopularity(id uint, popularity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[id].Popularity = popularity
}

// Book 读取图书当前状态
func (s *Store) Book(id uint) book.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.books[id]
}

// SeedOrder 直接写入订单(ID为0时自动分配)
func (s *Store) SeedOrder(o *order.Order) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		s.nextOrderID++
		o.ID = s.nextOrderID
	} else if o.ID > s.nextOrderID {
		s.nextOrderID = o.ID
	}
	s.orders[o.ID] = cloneOrder(o)
	return o.ID
}

// OrderStatus 订单当前状态
func (s *Store) OrderStatus(id uint) order.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

// OrderCount 订单数量
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// FailCreate 之后的订单写入都返回err,nil恢复
func (s *Store) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// FailNextCreate 接下来的订单写入依次返回errs中的错误,用完后恢复正常
func (s *Store) FailNextCreate(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createOnce = append(s.createOnce, errs...)
}

// RowLock 返回图书的行锁,测试可以直接占用它模拟长事务
func (s *Store) RowLock(id uint) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// Books 目录仓储
func (s *Store) Books() book.Repository { return bookRepo{s} }

// Orders 订单仓储
func (s *Store) Orders() order.Repository { return orderRepo{s} }

type txKey struct{}

type txState struct {
	held    map[uint]bool
	snap    map[uint]book.Book
	created []uint
}

// Transaction fn返回error时回滚,结束时释放本事务持有的全部行锁
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	st := &txState{held: make(map[uint]bool), snap: make(map[uint]book.Book)}
	err := fn(context.WithValue(ctx, txKey{}, st))

	if err != nil {
		s.mu.Lock()
		for id, b := range st.snap {
			restored := b
			s.books[id] = &restored
		}
		for _, id := range st.created {
			delete(s.orders, id)
		}
		s.mu.Unlock()
	}

	for id := range st.held {
		<-s.RowLock(id)
	}
	return err
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.OrderItem(nil), o.Items...)
	return &cp
}

type bookRepo struct{ s *Store }

func (r bookRepo) Create(_ context.Context, b *book.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *b
	r.s.books[b.ID] = &cp
	return nil
}

func (r bookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (r bookRepo) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		return nil, errors.New("memstore: LockByID outside transaction")
	}

	if !st.held[id] {
		select {
		case r.s.RowLock(id) <- struct{}{}:
			st.held[id] = true
		case <-ctx.Done():
			return nil, apperrors.ErrBusy.WithCause(ctx.Err())
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	if _, saved := st.snap[id]; !saved {
		st.snap[id] = *b
	}
	cp := *b
	return &cp, nil
}

func (r bookRepo) ApplyPurchase(_ context.Context, id uint, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok || b.Stock < quantity {
		return book.ErrStockConflict
	}
	b.Stock -= quantity
	b.Popularity += quantity
	return nil
}

type orderRepo struct{ s *Store }

func (r orderRepo) Create(ctx context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return r.s.createErr
	}
	if len(r.s.createOnce) > 0 {
		err := r.s.createOnce[0]
		r.s.createOnce = r.s.createOnce[1:]
		return err
	}
	for _, existing := range r.s.orders {
		if o.IdempotencyKey != "" && existing.UserID == o.UserID && existing.IdempotencyKey == o.IdempotencyKey {
			return order.ErrDuplicateIdempotencyKey
		}
		if existing.OrderNo == o.OrderNo {
			return order.ErrDuplicateOrderNo
		}
	}

	r.s.nextOrderID++
	o.ID = r.s.nextOrderID
	for i := range o.Items {
		o.Items[i].ID = uint(i + 1)
		o.Items[i].OrderID = o.ID
	}
	r.s.orders[o.ID] = cloneOrder(o)
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.created = append(st.created, o.ID)
	}
	return nil
}

func (r orderRepo) FindByID(_ context.Context, id uint) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r orderRepo) FindByIdempotencyKey(_ context.Context, userID uint, key string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return cloneOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r orderRepo) ListByUserID(_ context.Context, userID uint, params order.ListParams) ([]*order.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*order.Order
	for _, o := range r.s.orders {
		if o.UserID != userID || (params.Status != "" && o.Status != params.Status) {
			continue
		}
		all = append(all, cloneOrder(o))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	start := (params.Page - 1) * params.PageSize
	if start < 0 || start >= len(all) {
		return []*order.Order{}, total, nil
	}
	end := start + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r orderRepo) UpdateStatus(_ context.Context, id uint, from order.Status, change order.StatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != from {
		return order.ErrStatusConflict
	}
	o.Apply(change)
	return nil
}

// Recorder 记录发布的事件
type Recorder struct {
	mu     sync.Mutex
	events []order.Event
	err    error
}

// Publish 实现order.EventPublisher
func (p *Recorder) Publish(_ context.Context, e order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// Fail 之后的发布都返回err
func (p *Recorder) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Events 已发布事件的副本
func (p *Recorder) Events() []order.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]order.Event(nil), p.events...)
}

// Cart 内存购物车
type Cart struct {
	mu       sync.Mutex
	lines    map[uint]map[uint]int
	clearErr error
}

// NewCart 创建空购物车存储
func NewCart() *Cart {
	return &Cart{lines: make(map[uint]map[uint]int)}
}

// FailClear 之后的Clear都返回err
func (c *Cart) FailClear(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearErr = err
}

func (c *Cart) ListItems(_ context.Context, userID uint) ([]cart.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cart.Line, 0, len(c.lines[userID]))
	for bookID, qty := range c.lines[userID] {
		out = append(out, cart.Line{UserID: userID, BookID: bookID, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out, nil
}

func (c *Cart) SetItem(_ context.Context, userID, bookID uint, quantity int) error {
	if quantity <= 0 {
		return cart.ErrInvalidQuantity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lines[userID] == nil {
		c.lines[userID] = make(map[uint]int)
	}
	c.lines[userID][bookID] = quantity
	return nil
}

func (c *Cart) AddItem(_ context.Context, userID, bookID uint, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lines[userID] == nil {
		c.lines[userID] = make(map[uint]int)
	}
	c.lines[userID][bookID] += delta
	qty := c.lines[userID][bookID]
	if qty <= 0 {
		delete(c.lines[userID], bookID)
		return 0, nil
	}
	return qty, nil
}

func (c *Cart) RemoveItem(_ context.Context, userID, bookID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines[userID], bookID)
	return nil
}

func (c *Cart) Clear(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	delete(c.lines, userID)
	return nil
}

var (
	_ book.Repository      = bookRepo{}
	_ order.Repository     = orderRepo{}
	_ order.EventPublisher = (*Recorder)(nil)
	_ cart.Store           = (*Cart)(nil)
)
