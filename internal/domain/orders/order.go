// Package orders holds account-upgrade order records. Payment collection is
// handled by an external gateway; this registry only tracks the records.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"melodia/internal/core/apperror"
	"melodia/internal/core/entity"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/pkg/logger"
)

// Order statuses. An order starts as init and may complete exactly once.
const (
	StatusInit = "init"
	StatusDone = "done"
)

// Order is one upgrade purchase.
type Order struct {
	entity.BaseDocument

	UserID id.ID           `db:"user_id" json:"userId"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	Status string          `db:"status" json:"status"`
	Note   string          `db:"note" json:"note,omitempty"`
}

// New creates an order in init status.
func New(userID id.ID, amount decimal.Decimal) *Order {
	return &Order{
		BaseDocument: entity.NewBaseDocument(),
		UserID:       userID,
		Amount:       amount,
		Status:       StatusInit,
	}
}

// Validate checks order invariants.
func (o *Order) Validate(ctx context.Context) error {
	if id.IsNil(o.UserID) {
		return apperror.NewValidation("user is required").WithDetail("field", "userId")
	}
	if o.Amount.LessThanOrEqual(decimal.Zero) {
		return apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	return nil
}

// Repository stores order records.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// MarkDone transitions init -> done conditionally. Returns false when the
	// order was not in init, so a double completion cannot pass.
	MarkDone(ctx context.Context, orderID id.ID) (bool, error)

	// ListByMonth returns orders created inside the month containing t.
	ListByMonth(ctx context.Context, t time.Time) ([]Order, error)

	ListByUser(ctx context.Context, userID id.ID) ([]Order, error)
}

// Service implements order operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates the order service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create registers a new init order for the user.
func (s *Service) Create(ctx context.Context, userID id.ID, amount decimal.Decimal, note string) (*Order, error) {
	order := New(userID, amount)
	order.Note = note
	if err := order.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Complete marks the order done. Only an init order can complete; anything
// else fails with Conflict.
func (s *Service) Complete(ctx context.Context, orderID id.ID) error {
	var done bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		done, err = s.repo.MarkDone(ctx, orderID)
		return err
	})
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("order", orderID.String())
		}
		return fmt.Errorf("complete order: %w", err)
	}
	if !done {
		return apperror.NewConflict("order is not pending").WithDetail("order_id", orderID.String())
	}

	logger.Info(ctx, "order completed", "order_id", orderID)
	return nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, err
	}
	return order, nil
}

// ListMonth returns orders created in the month containing t, with the sum of
// completed amounts.
func (s *Service) ListMonth(ctx context.Context, t time.Time) ([]Order, decimal.Decimal, error) {
	orders, err := s.repo.ListByMonth(ctx, t)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list orders: %w", err)
	}
	total := decimal.Zero
	for i := range orders {
		if orders[i].Status == StatusDone {
			total = total.Add(orders[i].Amount)
		}
	}
	return orders, total, nil
}

// ListByUser returns the user's orders.
func (s *Service) ListByUser(ctx context.Context, userID id.ID) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
