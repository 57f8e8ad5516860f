package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/domain/orders"
	"melodia/internal/infrastructure/http/v1/dto"
)

// OrdersHandler exposes premium upgrade orders.
type OrdersHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(base *BaseHandler, service *orders.Service) *OrdersHandler {
	return &OrdersHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders - the authenticated user opens an order.
func (h *OrdersHandler) Create(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.Create(c.Request.Context(), userID, req.Amount, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(order))
}

// Complete handles POST /admin/orders/:id/complete
func (h *OrdersHandler) Complete(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Complete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order completed")
}

// Get handles GET /orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.service.Get(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(order))
}

// ListMine handles GET /orders - the authenticated user's orders.
func (h *OrdersHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	items, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]dto.OrderResponse, len(items))
	for i := range items {
		resp[i] = *dto.FromOrder(&items[i])
	}
	h.OK(c, gin.H{"items": resp})
}

// ListMonth handles GET /admin/orders?month=2026-08 - a month's orders with
// the completed total.
func (h *OrdersHandler) ListMonth(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().UTC().Format("2006-01"))
	t, err := time.Parse("2006-01", month)
	if err != nil {
		h.Error(c, apperror.NewValidation("month must look like 2006-01").WithDetail("month", month))
		return
	}

	items, total, err := h.service.ListMonth(c.Request.Context(), t)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.MonthSummaryResponse{
		Month:  month,
		Items:  make([]dto.OrderResponse, len(items)),
		Total:  total,
		Orders: len(items),
	}
	for i := range items {
		resp.Items[i] = *dto.FromOrder(&items[i])
	}

	h.OK(c, resp)
}
