package order

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/order"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// HistoryQuery 订单查询用例(只读)
type HistoryQuery struct {
	orders order.Repository
}

// NewHistoryQuery 创建订单查询用例
func NewHistoryQuery(orders order.Repository) *HistoryQuery {
	return &HistoryQuery{orders: orders}
}

// HistoryRequest 订单历史查询参数
type HistoryRequest struct {
	UserID   uint
	Page     int
	PageSize int
	Status   string // 为空不过滤
}

// HistoryResult 订单历史分页结果
type HistoryResult struct {
	Orders   []*order.Order
	Total    int64
	Page     int
	PageSize int
}

// GetOrderHistory 查询用户的订单历史(最新的在前)
func (q *HistoryQuery) GetOrderHistory(ctx context.Context, req HistoryRequest) (*HistoryResult, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	params := order.ListParams{Page: page, PageSize: pageSize}
	if req.Status != "" {
		status, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		params.Status = status
	}

	orders, total, err := q.orders.ListByUserID(ctx, req.UserID, params)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetOrder 查询用户自己的订单详情
func (q *HistoryQuery) GetOrder(ctx context.Context, userID, orderID uint) (*order.Order, error) {
	o, err := q.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
