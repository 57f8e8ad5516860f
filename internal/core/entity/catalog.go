package entity

import (
	"context"
	"strings"

	"melodia/internal/core/apperror"
)

// Catalog is the base type for reference data.
// Examples: Songs, Singers, Topics, Playlists.
type Catalog struct {
	BaseEntity

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Slug is a URL-friendly identifier used for public lookups
	Slug string `db:"slug" json:"slug"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(name, slug string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Name:       name,
		Slug:       slug,
	}
}

// NormalizeSlug lowercases the slug and replaces whitespace runs with a
// single hyphen. An empty slug falls back to the normalized name.
func NormalizeSlug(slug, name string) string {
	s := strings.TrimSpace(slug)
	if s == "" {
		s = strings.TrimSpace(name)
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	// Slug can be derived from the name at save time, so it is optional here.

	return nil
}
