package auth_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/access"
	"melodia/internal/infrastructure/storage/postgres"
)

const roleColumns = `id, name, created_at, updated_at, version`

// RoleRepo implements access.RoleRepository. Permission references live in
// the role_permissions join table.
type RoleRepo struct {
	tx *postgres.TxManager
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(tx *postgres.TxManager) *RoleRepo {
	return &RoleRepo{tx: tx}
}

func (r *RoleRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

func scanRole(row pgx.Row) (*access.Role, error) {
	var role access.Role
	err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt, &role.Version)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Create creates a new role.
func (r *RoleRepo) Create(ctx context.Context, role *access.Role) error {
	query := `
		INSERT INTO roles (id, name, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		role.ID, role.Name, role.CreatedAt, role.UpdatedAt, role.Version,
	)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

// GetByID retrieves role by ID.
func (r *RoleRepo) GetByID(ctx context.Context, roleID id.ID) (*access.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	role, err := scanRole(r.querier(ctx).QueryRow(ctx, query, roleID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("role", roleID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query role: %w", err)
	}

	return role, nil
}

// FindByName retrieves the role with the exact name. Case sensitive.
func (r *RoleRepo) FindByName(ctx context.Context, name string) (*access.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`

	role, err := scanRole(r.querier(ctx).QueryRow(ctx, query, name))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("role", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query role by name: %w", err)
	}

	return role, nil
}

// Update updates role data with optimistic locking.
func (r *RoleRepo) Update(ctx context.Context, role *access.Role) error {
	query := `
		UPDATE roles SET
			name = $2,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND version = $3
	`

	result, err := r.querier(ctx).Exec(ctx, query, role.ID, role.Name, role.Version)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("role", role.ID)
	}

	role.Version++
	return nil
}

// Delete removes the role and its permission references.
func (r *RoleRepo) Delete(ctx context.Context, roleID id.ID) error {
	q := r.querier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("delete role permissions: %w", err)
	}

	result, err := q.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("role", roleID.String())
	}

	return nil
}

// List retrieves roles with filtering.
func (r *RoleRepo) List(ctx context.Context, opts access.ListOptions) ([]access.Role, int64, error) {
	q := r.querier(ctx)

	query := `SELECT ` + roleColumns + ` FROM roles`
	countQuery := `SELECT COUNT(*) FROM roles`

	var args []any
	if opts.Search != "" {
		cond := ` WHERE name ILIKE $1`
		query += cond
		countQuery += cond
		args = append(args, "%"+opts.Search+"%")
	}

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	query += ` ORDER BY name ASC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []access.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, total, nil
}

// ExistsByID checks if the role exists.
func (r *RoleRepo) ExistsByID(ctx context.Context, roleID id.ID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1)`

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, query, roleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check role exists: %w", err)
	}

	return exists, nil
}

// ExistsByName checks name uniqueness. The comparison is case sensitive, so
// "Editor" and "editor" are distinct names.
func (r *RoleRepo) ExistsByName(ctx context.Context, name string, excludeID id.ID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1 AND id <> $2)`

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check role name exists: %w", err)
	}

	return exists, nil
}

// ReplacePermissions swaps the full reference set of a role.
func (r *RoleRepo) ReplacePermissions(ctx context.Context, roleID id.ID, permissionIDs []id.ID) error {
	q := r.querier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}

	for _, permID := range permissionIDs {
		_, err := q.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, permID,
		)
		if err != nil {
			return fmt.Errorf("insert role permission: %w", err)
		}
	}

	return nil
}

// LoadPermissionIDs returns the persisted reference set.
func (r *RoleRepo) LoadPermissionIDs(ctx context.Context, roleID id.ID) ([]id.ID, error) {
	query := `SELECT permission_id FROM role_permissions WHERE role_id = $1`

	rows, err := r.querier(ctx).Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("query role permissions: %w", err)
	}
	defer rows.Close()

	var ids []id.ID
	for rows.Next() {
		var permID id.ID
		if err := rows.Scan(&permID); err != nil {
			return nil, fmt.Errorf("scan permission id: %w", err)
		}
		ids = append(ids, permID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission ids: %w", err)
	}

	return ids, nil
}

// Ensure interface compliance
var _ access.RoleRepository = (*RoleRepo)(nil)
