package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	"github.com/xiebiao/storefront/internal/application/purchase"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/response"
)

// CartHandler 购物车HTTP处理器
type CartHandler struct {
	carts    *appcart.Service
	checkout *purchase.CartCheckout
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(carts *appcart.Service, checkout *purchase.CartCheckout) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout}
}

// GetCart 查看购物车
// @Summary      查看购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.CartResponse}
// @Router       /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.carts.Get(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToCartResponse(view))
}

// AddItem 加入购物车
// @Summary      加入购物车
// @Description  在已有数量上累加;只做库存提示校验,不占用库存
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddCartItemRequest true "图书和数量"
// @Success      200 {object} response.Response{data=dto.CartQuantityResponse}
// @Router       /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	qty, err := h.carts.Add(c.Request.Context(), middleware.MustGetUserID(c), req.BookID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.CartQuantityResponse{BookID: req.BookID, Quantity: qty})
}

// SetItem 修改购物车数量
// @Summary      修改购物车数量
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Param        request body dto.SetCartItemRequest true "数量(0表示移除)"
// @Success      200 {object} response.Response
// @Router       /api/v1/cart/items/{book_id} [put]
func (h *CartHandler) SetItem(c *gin.Context) {
	bookID, ok := parseID(c, "book_id")
	if !ok {
		return
	}
	var req dto.SetCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	if err := h.carts.Set(c.Request.Context(), middleware.MustGetUserID(c), bookID, req.Quantity); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.CartQuantityResponse{BookID: bookID, Quantity: req.Quantity})
}

// RemoveItem 移出购物车
// @Summary      移出购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Param        book_id path int true "图书ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/cart/items/{book_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	bookID, ok := parseID(c, "book_id")
	if !ok {
		return
	}
	if err := h.carts.Remove(c.Request.Context(), middleware.MustGetUserID(c), bookID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Checkout 购物车结算
// @Summary      购物车结算
// @Description  整车一次事务下单,成功后清空购物车;失败时购物车保持不变
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "幂等键"
// @Success      200 {object} response.Response{data=dto.CheckoutResponse}
// @Failure      200 {object} response.Response "40006购物车为空 / 40001库存不足"
// @Router       /api/v1/cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	result, err := h.checkout.Execute(c.Request.Context(), middleware.MustGetUserID(c), c.GetHeader(headerIdempotencyKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToCheckoutResponse(result))
}
