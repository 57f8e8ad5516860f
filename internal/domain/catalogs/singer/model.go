// Package singer is the singer catalog.
package singer

import (
	"context"

	"melodia/internal/core/apperror"
	"melodia/internal/core/entity"
	"melodia/internal/core/id"
)

// Singer statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Singer is an artist profile. At most one user account manages a singer;
// the back-reference is cleared when that account unlinks or is deleted.
type Singer struct {
	entity.Catalog

	Status        string `db:"status" json:"status"`
	Bio           string `db:"bio" json:"bio,omitempty"`
	AvatarURL     string `db:"avatar_url" json:"avatarUrl,omitempty"`
	ManagerUserID *id.ID `db:"manager_user_id" json:"managerUserId,omitempty"`
}

// New creates an active singer.
func New(name, slug string) *Singer {
	return &Singer{
		Catalog: entity.NewCatalog(name, slug),
		Status:  StatusActive,
	}
}

// Validate checks singer invariants.
func (s *Singer) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}
	if s.Status != StatusActive && s.Status != StatusInactive {
		return apperror.NewValidation("unknown status").WithDetail("field", "status")
	}
	return nil
}
