package dto

import (
	"time"

	"github.com/xiebiao/storefront/internal/application/purchase"
	"github.com/xiebiao/storefront/internal/domain/order"
)

const timeLayout = "2006-01-02 15:04:05"

// PurchaseRequest 单本购买请求
type PurchaseRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1" example:"1"`
}

// CheckoutItem 结算明细
type CheckoutItem struct {
	BookID   uint `json:"book_id" binding:"required,min=1" example:"1"`
	Quantity int  `json:"quantity" binding:"required,min=1" example:"2"`
}

// CheckoutRequest 多本结算请求
type CheckoutRequest struct {
	Items []CheckoutItem `json:"items" binding:"required,min=1,dive"`
}

// ListOrdersRequest 订单历史查询
type ListOrdersRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"10"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled" example:"pending"`
}

// OrderItemResponse 订单明细
// 金额统一返回两位小数的字符串
type OrderItemResponse struct {
	BookID     uint   `json:"book_id" example:"1"`
	BookTitle  string `json:"book_title" example:"Go语言实战"`
	Quantity   int    `json:"quantity" example:"3"`
	UnitPrice  string `json:"unit_price" example:"900.00"`
	TotalPrice string `json:"total_price" example:"2700.00"`
}

// OrderResponse 订单详情
type OrderResponse struct {
	ID                uint                `json:"id" example:"1"`
	OrderNo           string              `json:"order_no" example:"ORD-1705290000000-3f9a0c71d2e4"`
	Status            string              `json:"status" example:"pending"`
	StatusDisplayName string              `json:"status_display_name" example:"待确认"`
	TotalAmount       string              `json:"total_amount" example:"2700.00"`
	TotalItems        int                 `json:"total_items" example:"3"`
	CanBeCancelled    bool                `json:"can_be_cancelled" example:"true"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         string              `json:"created_at" example:"2024-01-15 10:30:00"`
	ShippedAt         string              `json:"shipped_at,omitempty"`
	DeliveredAt       string              `json:"delivered_at,omitempty"`
	DeliveryDays      *int                `json:"delivery_days,omitempty"`
}

// BookStateResponse 购买后的图书状态
type BookStateResponse struct {
	BookID     uint `json:"book_id" example:"1"`
	Stock      int  `json:"stock" example:"2"`
	Popularity int  `json:"popularity" example:"3"`
}

// PurchaseResponse 单本购买响应
type PurchaseResponse struct {
	Order      *OrderResponse `json:"order"`
	Stock      int            `json:"stock" example:"2"`
	Popularity int            `json:"popularity" example:"3"`
	Replayed   bool           `json:"replayed" example:"false"`
}

// CheckoutResponse 结算响应
type CheckoutResponse struct {
	Order    *OrderResponse      `json:"order"`
	Books    []BookStateResponse `json:"books,omitempty"`
	Replayed bool                `json:"replayed" example:"false"`
}

// ToOrderResponse 领域订单转换为响应
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			BookID:     item.BookID,
			BookTitle:  item.BookTitle,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			TotalPrice: item.TotalPrice.StringFixed(2),
		}
	}

	resp := &OrderResponse{
		ID:                o.ID,
		OrderNo:           o.OrderNo,
		Status:            o.Status.String(),
		StatusDisplayName: o.Status.DisplayName(),
		TotalAmount:       o.TotalAmount.StringFixed(2),
		TotalItems:        o.TotalItemsCount(),
		CanBeCancelled:    o.CanBeCancelled(),
		Items:             items,
		CreatedAt:         o.CreatedAt.Format(timeLayout),
		ShippedAt:         formatTime(o.ShippedAt),
		DeliveredAt:       formatTime(o.DeliveredAt),
	}
	if days, ok := o.DeliveryDays(); ok {
		resp.DeliveryDays = &days
	}
	return resp
}

// ToOrderList 订单列表
func ToOrderList(orders []*order.Order) []*OrderResponse {
	list := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = ToOrderResponse(o)
	}
	return list
}

// ToPurchaseResponse 单本购买结果转换
func ToPurchaseResponse(res *purchase.PurchaseResult) *PurchaseResponse {
	return &PurchaseResponse{
		Order:      ToOrderResponse(res.Order),
		Stock:      res.Stock,
		Popularity: res.Popularity,
		Replayed:   res.Replayed,
	}
}

// ToCheckoutResponse 结算结果转换
func ToCheckoutResponse(res *purchase.CheckoutResult) *CheckoutResponse {
	books := make([]BookStateResponse, len(res.Books))
	for i, b := range res.Books {
		books[i] = BookStateResponse{BookID: b.BookID, Stock: b.Stock, Popularity: b.Popularity}
	}
	return &CheckoutResponse{
		Order:    ToOrderResponse(res.Order),
		Books:    books,
		Replayed: res.Replayed,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
