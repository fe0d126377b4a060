package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/response"
)

// OrderHandler 订单HTTP处理器(用户侧)
type OrderHandler struct {
	history   *apporder.HistoryQuery
	lifecycle *apporder.Lifecycle
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(history *apporder.HistoryQuery, lifecycle *apporder.Lifecycle) *OrderHandler {
	return &OrderHandler{
		history:   history,
		lifecycle: lifecycle,
	}
}

// ListOrders 订单历史
// @Summary      订单历史
// @Description  当前用户的订单,按创建时间倒序
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(10)
// @Param        status query string false "状态过滤" Enums(pending, confirmed, processing, shipped, delivered, cancelled)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.OrderResponse}}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
		return
	}

	result, err := h.history.GetOrderHistory(c.Request.Context(), apporder.HistoryRequest{
		UserID:   middleware.MustGetUserID(c),
		Page:     req.Page,
		PageSize: req.PageSize,
		Status:   req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, dto.ToOrderList(result.Orders), result.Total, result.Page, result.PageSize)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      200 {object} response.Response "40403订单不存在"
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	o, err := h.history.GetOrder(c.Request.Context(), middleware.MustGetUserID(c), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

// CancelOrder 取消自己的订单
// @Summary      取消订单
// @Description  只有待确认、已确认的订单可以取消;取消不回补库存
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      200 {object} response.Response "40002订单状态不允许此操作 / 40403订单不存在"
// @Router       /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	o, err := h.lifecycle.CancelByOwner(c.Request.Context(), middleware.MustGetUserID(c), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToOrderResponse(o))
}

// OpsHandler 运营侧订单状态推进
type OpsHandler struct {
	lifecycle *apporder.Lifecycle
}

// NewOpsHandler 创建运营处理器
func NewOpsHandler(lifecycle *apporder.Lifecycle) *OpsHandler {
	return &OpsHandler{lifecycle: lifecycle}
}

type transitionFunc func(ctx context.Context, orderID uint) (*order.Order, error)

func (h *OpsHandler) handle(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseID(c, "id")
		if !ok {
			return
		}
		o, err := fn(c.Request.Context(), orderID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, dto.ToOrderResponse(o))
	}
}

// Confirm 确认订单
// @Summary      确认订单
// @Tags         运营
// @Produce      json
// @Param        X-API-Key header string true "运营密钥"
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      200 {object} response.Response "40002订单状态不允许此操作"
// @Router       /api/v1/ops/orders/{id}/confirm [post]
func (h *OpsHandler) Confirm(c *gin.Context) { h.handle(h.lifecycle.Confirm)(c) }

// StartProcessing 开始处理
// @Summary      开始处理订单
// @Tags         运营
// @Produce      json
// @Param        X-API-Key header string true "运营密钥"
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Router       /api/v1/ops/orders/{id}/process [post]
func (h *OpsHandler) StartProcessing(c *gin.Context) { h.handle(h.lifecycle.StartProcessing)(c) }

// Ship 发货
// @Summary      订单发货
// @Tags         运营
// @Produce      json
// @Param        X-API-Key header string true "运营密钥"
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Router       /api/v1/ops/orders/{id}/ship [post]
func (h *OpsHandler) Ship(c *gin.Context) { h.handle(h.lifecycle.Ship)(c) }

// Deliver 送达
// @Summary      订单送达
// @Tags         运营
// @Produce      json
// @Param        X-API-Key header string true "运营密钥"
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Router       /api/v1/ops/orders/{id}/deliver [post]
func (h *OpsHandler) Deliver(c *gin.Context) { h.handle(h.lifecycle.Deliver)(c) }

// Cancel 运营取消
// @Summary      运营取消订单
// @Tags         运营
// @Produce      json
// @Param        X-API-Key header string true "运营密钥"
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Router       /api/v1/ops/orders/{id}/cancel [post]
func (h *OpsHandler) Cancel(c *gin.Context) { h.handle(h.lifecycle.Cancel)(c) }
