package dto

import (
	appcart "github.com/xiebiao/storefront/internal/application/cart"
)

// AddCartItemRequest 加入购物车
type AddCartItemRequest struct {
	BookID   uint `json:"book_id" binding:"required,min=1" example:"1"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=999" example:"1"`
}

// SetCartItemRequest 修改购物车数量(0表示移除)
type SetCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=999" example:"2"`
}

// CartItemResponse 购物车条目
type CartItemResponse struct {
	BookID    uint   `json:"book_id" example:"1"`
	Title     string `json:"title" example:"Go语言实战"`
	UnitPrice string `json:"unit_price" example:"59.00"`
	Quantity  int    `json:"quantity" example:"2"`
	Subtotal  string `json:"subtotal" example:"118.00"`
	Stock     int    `json:"stock" example:"100"`
}

// CartResponse 购物车
type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items" example:"2"`
	Total      string             `json:"total" example:"118.00"`
}

// CartQuantityResponse 加入购物车后的数量
type CartQuantityResponse struct {
	BookID   uint `json:"book_id" example:"1"`
	Quantity int  `json:"quantity" example:"3"`
}

// ToCartResponse 购物车视图转换
func ToCartResponse(v *appcart.View) *CartResponse {
	items := make([]CartItemResponse, len(v.Entries))
	for i, e := range v.Entries {
		items[i] = CartItemResponse{
			BookID:    e.BookID,
			Title:     e.Title,
			UnitPrice: e.UnitPrice.StringFixed(2),
			Quantity:  e.Quantity,
			Subtotal:  e.Subtotal.StringFixed(2),
			Stock:     e.Stock,
		}
	}
	return &CartResponse{
		Items:      items,
		TotalItems: v.TotalItems,
		Total:      v.Total.StringFixed(2),
	}
}
