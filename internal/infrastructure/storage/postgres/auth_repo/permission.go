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

const permissionColumns = `id, name, method, path, created_at, updated_at, version`

// PermissionRepo implements access.PermissionRepository.
type PermissionRepo struct {
	tx *postgres.TxManager
}

// NewPermissionRepo creates a new permission repository.
func NewPermissionRepo(tx *postgres.TxManager) *PermissionRepo {
	return &PermissionRepo{tx: tx}
}

func (r *PermissionRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

func scanPermission(row pgx.Row) (*access.Permission, error) {
	var perm access.Permission
	err := row.Scan(
		&perm.ID, &perm.Name, &perm.Method, &perm.Path,
		&perm.CreatedAt, &perm.UpdatedAt, &perm.Version,
	)
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// Create creates a new permission.
func (r *PermissionRepo) Create(ctx context.Context, perm *access.Permission) error {
	query := `
		INSERT INTO permissions (id, name, method, path, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		perm.ID, perm.Name, perm.Method, perm.Path,
		perm.CreatedAt, perm.UpdatedAt, perm.Version,
	)
	if err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}

	return nil
}

// GetByID retrieves permission by ID.
func (r *PermissionRepo) GetByID(ctx context.Context, permID id.ID) (*access.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = $1`

	perm, err := scanPermission(r.querier(ctx).QueryRow(ctx, query, permID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("permission", permID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query permission: %w", err)
	}

	return perm, nil
}

// Update updates permission data with optimistic locking.
func (r *PermissionRepo) Update(ctx context.Context, perm *access.Permission) error {
	query := `
		UPDATE permissions SET
			name = $2,
			method = $3,
			path = $4,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND version = $5
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		perm.ID, perm.Name, perm.Method, perm.Path, perm.Version,
	)
	if err != nil {
		return fmt.Errorf("update permission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("permission", perm.ID)
	}

	perm.Version++
	return nil
}

// Delete removes one permission record. Role references are not checked.
func (r *PermissionRepo) Delete(ctx context.Context, permID id.ID) error {
	query := `DELETE FROM permissions WHERE id = $1`

	result, err := r.querier(ctx).Exec(ctx, query, permID)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("permission", permID.String())
	}

	return nil
}

// DeleteAll clears the permission registry.
func (r *PermissionRepo) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.querier(ctx).Exec(ctx, `DELETE FROM permissions`)
	if err != nil {
		return 0, fmt.Errorf("delete all permissions: %w", err)
	}

	return result.RowsAffected(), nil
}

// List retrieves permissions with filtering.
func (r *PermissionRepo) List(ctx context.Context, opts access.ListOptions) ([]access.Permission, int64, error) {
	q := r.querier(ctx)

	query := `SELECT ` + permissionColumns + ` FROM permissions`
	countQuery := `SELECT COUNT(*) FROM permissions`

	var args []any
	if opts.Search != "" {
		cond := ` WHERE (name ILIKE $1 OR path ILIKE $1)`
		query += cond
		countQuery += cond
		args = append(args, "%"+opts.Search+"%")
	}

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
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
		return nil, 0, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	var perms []access.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, *perm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate permissions: %w", err)
	}

	return perms, total, nil
}

// ExistsByID checks if the permission exists.
func (r *PermissionRepo) ExistsByID(ctx context.Context, permID id.ID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM permissions WHERE id = $1)`

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, query, permID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check permission exists: %w", err)
	}

	return exists, nil
}

// GetByIDs returns the permissions found for the given ids. Missing ids are
// silently absent from the result.
func (r *PermissionRepo) GetByIDs(ctx context.Context, permIDs []id.ID) ([]access.Permission, error) {
	if len(permIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = ANY($1) ORDER BY name ASC`

	rows, err := r.querier(ctx).Query(ctx, query, permIDs)
	if err != nil {
		return nil, fmt.Errorf("query permissions by ids: %w", err)
	}
	defer rows.Close()

	var perms []access.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, *perm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return perms, nil
}

// Ensure interface compliance
var _ access.PermissionRepository = (*PermissionRepo)(nil)
