package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/storefront/internal/application/purchase"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/response"
)

const headerIdempotencyKey = "Idempotency-Key"

// PurchaseHandler 购买HTTP处理器
type PurchaseHandler struct {
	engine *purchase.Engine
}

// NewPurchaseHandler 创建购买处理器
func NewPurchaseHandler(engine *purchase.Engine) *PurchaseHandler {
	return &PurchaseHandler{engine: engine}
}

// Purchase 购买单本图书
// @Summary      购买图书
// @Description  锁定库存行后校验并扣减库存,同一事务内写入订单;库存不足时data返回可用数量
// @Tags         购买
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Param        Idempotency-Key header string false "幂等键,重复提交返回同一订单"
// @Param        request body dto.PurchaseRequest true "购买数量"
// @Success      200 {object} response.Response{data=dto.PurchaseResponse} "购买成功"
// @Failure      200 {object} response.Response "40001库存不足 / 40402图书不存在 / 50003系统繁忙"
// @Router       /api/v1/books/{id}/purchase [post]
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	bookID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.engine.Purchase(c.Request.Context(), purchase.PurchaseRequest{
		UserID:         middleware.MustGetUserID(c),
		BookID:         bookID,
		Quantity:       req.Quantity,
		IdempotencyKey: c.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPurchaseResponse(result))
}

// Checkout 多本结算
// @Summary      多本结算
// @Description  全部成功或全部失败:任意一本库存不足则整单回滚
// @Tags         购买
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "幂等键"
// @Param        request body dto.CheckoutRequest true "结算明细"
// @Success      200 {object} response.Response{data=dto.CheckoutResponse} "下单成功"
// @Failure      200 {object} response.Response "40001库存不足 / 40402图书不存在 / 50003系统繁忙"
// @Router       /api/v1/orders [post]
func (h *PurchaseHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	items := make([]purchase.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = purchase.Item{BookID: item.BookID, Quantity: item.Quantity}
	}

	result, err := h.engine.Checkout(c.Request.Context(), purchase.CheckoutRequest{
		UserID:         middleware.MustGetUserID(c),
		Items:          items,
		IdempotencyKey: c.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCheckoutResponse(result))
}

// parseID 解析路径中的ID参数,失败时已写入错误响应
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: 非法的"+name)
		return 0, false
	}
	return uint(id), true
}
