// Package access provides the role and permission registries.
package access

import (
	"context"
	"net/http"
	"strings"
	"time"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
)

// APIRoot is the fixed prefix every permission path is normalized under.
const APIRoot = "/api/v1"

// Permission is the smallest addressable authorization unit: an HTTP verb
// plus a normalized path.
type Permission struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name,omitempty"`
	Method    string    `db:"method" json:"method"`
	Path      string    `db:"path" json:"path"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`
}

// NewPermission creates a permission with its path already normalized.
func NewPermission(name, method, path string) *Permission {
	now := time.Now().UTC()
	return &Permission{
		ID:        id.New(),
		Name:      name,
		Method:    strings.ToUpper(method),
		Path:      NormalizePath(path),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// NormalizePath prefixes the caller-supplied suffix with the API root.
// Already-normalized paths pass through unchanged, so normalization is
// idempotent across create and update.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return APIRoot
	}
	if strings.HasPrefix(path, APIRoot+"/") || path == APIRoot {
		return path
	}
	return APIRoot + "/" + strings.TrimPrefix(path, "/")
}

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Validate checks permission invariants.
func (p *Permission) Validate(ctx context.Context) error {
	if p.Path == "" {
		return apperror.NewValidation("path is required").WithDetail("field", "path")
	}
	if !knownMethods[p.Method] {
		return apperror.NewValidation("unknown HTTP method").WithDetail("field", "method")
	}
	return nil
}

// Matches reports whether the permission grants the given request.
func (p *Permission) Matches(method, path string) bool {
	return p.Method == strings.ToUpper(method) && p.Path == path
}

// Role is a named, reusable bundle of permissions.
type Role struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`

	// PermissionIDs is the persisted reference set.
	PermissionIDs []id.ID `db:"-" json:"permissionIds"`

	// Permissions is populated only by the expanding read path.
	Permissions []Permission `db:"-" json:"permissions,omitempty"`
}

// NewRole creates a new role.
func NewRole(name string, permissionIDs []id.ID) *Role {
	now := time.Now().UTC()
	return &Role{
		ID:            id.New(),
		Name:          name,
		PermissionIDs: permissionIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
}

// Validate checks role invariants.
func (r *Role) Validate(ctx context.Context) error {
	if r.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// Allows reports whether any of the role's expanded permissions matches the
// request. The permission set must be loaded first.
func (r *Role) Allows(method, path string) bool {
	for i := range r.Permissions {
		if r.Permissions[i].Matches(method, path) {
			return true
		}
	}
	return false
}
