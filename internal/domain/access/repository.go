package access

import (
	"context"

	"melodia/internal/core/id"
)

// ListOptions is an opaque pass-through of query options from the API layer.
type ListOptions struct {
	Search  string
	OrderBy string
	Limit   int
	Offset  int
}

// PermissionRepository stores permission records.
type PermissionRepository interface {
	Create(ctx context.Context, perm *Permission) error
	GetByID(ctx context.Context, permID id.ID) (*Permission, error)
	Update(ctx context.Context, perm *Permission) error

	// Delete removes one record. DeleteAll clears the registry. Neither
	// checks for roles still referencing the record; dangling references
	// are tolerated and defended against by the role registry.
	Delete(ctx context.Context, permID id.ID) error
	DeleteAll(ctx context.Context) (int64, error)

	List(ctx context.Context, opts ListOptions) ([]Permission, int64, error)
	ExistsByID(ctx context.Context, permID id.ID) (bool, error)

	// GetByIDs returns the permissions found for the given ids; missing ids
	// are silently absent from the result.
	GetByIDs(ctx context.Context, permIDs []id.ID) ([]Permission, error)
}

// RoleRepository stores role records and their permission reference sets.
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, roleID id.ID) (*Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, roleID id.ID) error

	List(ctx context.Context, opts ListOptions) ([]Role, int64, error)
	ExistsByID(ctx context.Context, roleID id.ID) (bool, error)

	// FindByName returns the role with the exact (case-sensitive) name.
	FindByName(ctx context.Context, name string) (*Role, error)

	// ExistsByName checks case-sensitive name uniqueness, excluding one role
	// (the role being updated; pass id.Nil() on create).
	ExistsByName(ctx context.Context, name string, excludeID id.ID) (bool, error)

	// ReplacePermissions swaps the full reference set of a role.
	ReplacePermissions(ctx context.Context, roleID id.ID, permissionIDs []id.ID) error

	// LoadPermissionIDs returns the persisted reference set.
	LoadPermissionIDs(ctx context.Context, roleID id.ID) ([]id.ID, error)
}
