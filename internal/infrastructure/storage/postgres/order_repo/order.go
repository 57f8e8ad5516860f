// Package order_repo provides the PostgreSQL implementation for the order
// registry.
package order_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/orders"
	"melodia/internal/infrastructure/storage/postgres"
)

const orderColumns = `id, user_id, amount, status, note, deletion_mark,
	   created_at, updated_at, created_by, updated_by, version`

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	tx *postgres.TxManager
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(tx *postgres.TxManager) *OrderRepo {
	return &OrderRepo{tx: tx}
}

func (r *OrderRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var order orders.Order
	err := row.Scan(
		&order.ID, &order.UserID, &order.Amount, &order.Status, &order.Note,
		&order.DeletionMark, &order.CreatedAt, &order.UpdatedAt,
		&order.CreatedBy, &order.UpdatedBy, &order.Version,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create creates a new order.
func (r *OrderRepo) Create(ctx context.Context, order *orders.Order) error {
	query := `
		INSERT INTO doc_order (
			id, user_id, amount, status, note, deletion_mark,
			created_at, updated_at, created_by, updated_by, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		order.ID, order.UserID, order.Amount, order.Status, order.Note,
		order.DeletionMark, order.CreatedAt, order.UpdatedAt,
		order.CreatedBy, order.UpdatedBy, order.Version,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves order by ID.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM doc_order WHERE id = $1 AND deletion_mark = FALSE`

	order, err := scanOrder(r.querier(ctx).QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	return order, nil
}

// MarkDone transitions init -> done in a single conditional statement, so a
// double completion touches zero rows.
func (r *OrderRepo) MarkDone(ctx context.Context, orderID id.ID) (bool, error) {
	query := `
		UPDATE doc_order SET status = $2, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND status = $3 AND deletion_mark = FALSE
	`

	result, err := r.querier(ctx).Exec(ctx, query, orderID, orders.StatusDone, orders.StatusInit)
	if err != nil {
		return false, fmt.Errorf("mark order done: %w", err)
	}
	if result.RowsAffected() == 1 {
		return true, nil
	}

	// Zero rows means either the order is missing or it already left init.
	exists, err := r.exists(ctx, orderID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, apperror.NewNotFound("order", orderID.String())
	}

	return false, nil
}

func (r *OrderRepo) exists(ctx context.Context, orderID id.ID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM doc_order WHERE id = $1 AND deletion_mark = FALSE)`

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, query, orderID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}

	return exists, nil
}

// ListByMonth returns orders created inside the month containing t.
func (r *OrderRepo) ListByMonth(ctx context.Context, t time.Time) ([]orders.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM doc_order
		WHERE deletion_mark = FALSE
		  AND created_at >= date_trunc('month', $1::timestamptz)
		  AND created_at < date_trunc('month', $1::timestamptz) + interval '1 month'
		ORDER BY created_at ASC
	`

	return r.list(ctx, query, t)
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID id.ID) ([]orders.Order, error) {
	query := `
		SELECT ` + orderColumns + ` FROM doc_order
		WHERE user_id = $1 AND deletion_mark = FALSE
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, userID)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]orders.Order, error) {
	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var items []orders.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return items, nil
}

// Ensure interface compliance
var _ orders.Repository = (*OrderRepo)(nil)
