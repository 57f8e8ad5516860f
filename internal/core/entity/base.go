package entity

import (
	"context"
	"time"

	"melodia/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants.
// Validation never touches the database; reference checks live in services.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity holds the fields every persisted record carries. Version backs
// optimistic locking; the repositories increment it in SQL on update.
type BaseEntity struct {
	ID           id.ID `db:"id" json:"id"`
	DeletionMark bool  `db:"deletion_mark" json:"deletionMark"`
	Version      int   `db:"version" json:"version"`
}

// NewBaseEntity creates a BaseEntity with a fresh id at version 1.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// BaseDocument extends BaseEntity with audit timestamps for records whose
// lifecycle matters (users, orders).
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a BaseDocument with both timestamps set to now.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
