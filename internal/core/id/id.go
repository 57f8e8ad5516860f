// Package id wraps UUIDv7 generation for entity identifiers. V7 ids are
// time-ordered, so primary-key indexes stay append-mostly in PostgreSQL.
package id

import (
	"github.com/google/uuid"
)

// ID identifies every entity in the system.
type ID = uuid.UUID

// New generates a UUIDv7.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails when the entropy source does.
		return uuid.New()
	}
	return id
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// Nil returns the zero-value id.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether the id is the zero value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
