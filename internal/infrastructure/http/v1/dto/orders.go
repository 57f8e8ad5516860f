package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"melodia/internal/domain/orders"
)

// CreateOrderRequest registers an upgrade order.
type CreateOrderRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FromOrder creates response from domain order.
func FromOrder(o *orders.Order) *OrderResponse {
	return &OrderResponse{
		ID:        o.ID.String(),
		UserID:    o.UserID.String(),
		Amount:    o.Amount,
		Status:    o.Status,
		Note:      o.Note,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// MonthSummaryResponse lists a month's orders with the completed total.
type MonthSummaryResponse struct {
	Month  string          `json:"month"`
	Items  []OrderResponse `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}
