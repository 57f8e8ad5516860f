// Package tx defines transaction management contracts.
// Domain services depend on these interfaces; the pgx-backed
// implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs functions inside database transactions.
type Manager interface {
	// RunInTransaction executes fn within a transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	//
	// Nested calls reuse the transaction already carried by ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support,
// used for multi-statement reads that need a consistent snapshot.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction. Writes inside fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
