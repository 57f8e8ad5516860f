// Package auth_repo provides PostgreSQL implementations for the auth and
// access-control repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/auth"
	"melodia/internal/infrastructure/storage/postgres"
)

const userColumns = `id, username, email, type, password_hash, full_name, avatar_url,
	   role_id, singer_id, status, refresh_fp, deletion_mark,
	   created_at, updated_at, version`

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	tx *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(tx *postgres.TxManager) *UserRepo {
	return &UserRepo{tx: tx}
}

func (r *UserRepo) querier(ctx context.Context) postgres.Querier {
	return r.tx.GetQuerier(ctx)
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Type,
		&user.PasswordHash, &user.FullName, &user.AvatarURL,
		&user.RoleID, &user.SingerID, &user.Status, &user.RefreshFP,
		&user.DeletionMark, &user.CreatedAt, &user.UpdatedAt, &user.Version,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	query := `
		INSERT INTO users (
			id, username, email, type, password_hash, full_name, avatar_url,
			role_id, singer_id, status, refresh_fp, deletion_mark,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier(ctx).Exec(ctx, query,
		user.ID, user.Username, user.Email, user.Type,
		user.PasswordHash, user.FullName, user.AvatarURL,
		user.RoleID, user.SingerID, user.Status, user.RefreshFP,
		user.DeletionMark, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deletion_mark = FALSE`

	user, err := scanUser(r.querier(ctx).QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// FindByUsername retrieves user by login name within an account type.
// Username matching is exact and case sensitive.
func (r *UserRepo) FindByUsername(ctx context.Context, username, accountType string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE username = $1 AND type = $2 AND deletion_mark = FALSE`

	user, err := scanUser(r.querier(ctx).QueryRow(ctx, query, username, accountType))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves user by email address.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email = $1 AND deletion_mark = FALSE`

	user, err := scanUser(r.querier(ctx).QueryRow(ctx, query, email))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// FindByRefreshFingerprint retrieves the user whose stored refresh token
// fingerprint matches exactly.
func (r *UserRepo) FindByRefreshFingerprint(ctx context.Context, fingerprint string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE refresh_fp = $1 AND deletion_mark = FALSE`

	user, err := scanUser(r.querier(ctx).QueryRow(ctx, query, fingerprint))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", "refresh fingerprint")
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// SetRefreshFingerprint stores a fingerprint unconditionally.
func (r *UserRepo) SetRefreshFingerprint(ctx context.Context, userID id.ID, fingerprint string) error {
	query := `UPDATE users SET refresh_fp = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.querier(ctx).Exec(ctx, query, userID, fingerprint)
	if err != nil {
		return fmt.Errorf("set refresh fingerprint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// RotateRefreshFingerprint replaces the stored fingerprint only when it still
// equals oldFP. The compare and swap happens in a single statement, so of two
// concurrent refreshes exactly one succeeds.
func (r *UserRepo) RotateRefreshFingerprint(ctx context.Context, userID id.ID, oldFP, newFP string) (bool, error) {
	query := `UPDATE users SET refresh_fp = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_fp = $2`

	result, err := r.querier(ctx).Exec(ctx, query, userID, oldFP, newFP)
	if err != nil {
		return false, fmt.Errorf("rotate refresh fingerprint: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ClearRefreshFingerprint removes the fingerprint. Clearing an already empty
// fingerprint is not an error.
func (r *UserRepo) ClearRefreshFingerprint(ctx context.Context, userID id.ID) error {
	query := `UPDATE users SET refresh_fp = NULL, updated_at = NOW() WHERE id = $1`

	if _, err := r.querier(ctx).Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear refresh fingerprint: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deletion_mark = FALSE`

	result, err := r.querier(ctx).Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// UpdateStatus sets the account status.
func (r *UserRepo) UpdateStatus(ctx context.Context, userID id.ID, status string) error {
	query := `UPDATE users SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deletion_mark = FALSE`

	result, err := r.querier(ctx).Exec(ctx, query, userID, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// UpdateRole reassigns the account's role.
func (r *UserRepo) UpdateRole(ctx context.Context, userID, roleID id.ID) error {
	query := `UPDATE users SET role_id = $2, updated_at = NOW()
		WHERE id = $1 AND deletion_mark = FALSE`

	result, err := r.querier(ctx).Exec(ctx, query, userID, roleID)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// Update persists profile fields with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	query := `
		UPDATE users SET
			email = $2,
			full_name = $3,
			avatar_url = $4,
			singer_id = $5,
			status = $6,
			deletion_mark = $7,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $1 AND version = $8
	`

	result, err := r.querier(ctx).Exec(ctx, query,
		user.ID, user.Email, user.FullName, user.AvatarURL,
		user.SingerID, user.Status, user.DeletionMark, user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}

	user.Version++
	return nil
}

// Delete removes the user row permanently.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.querier(ctx).Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int64, error) {
	q := r.querier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE deletion_mark = FALSE`
	countQuery := `SELECT COUNT(*) FROM users WHERE deletion_mark = FALSE`

	var args []any
	argIdx := 1

	if filter.Search != "" {
		cond := fmt.Sprintf(" AND (username ILIKE $%d OR email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx, argIdx)
		query += cond
		countQuery += cond
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Type != "" {
		cond := fmt.Sprintf(" AND type = $%d", argIdx)
		query += cond
		countQuery += cond
		args = append(args, filter.Type)
		argIdx++
	}
	if filter.Status != "" {
		cond := fmt.Sprintf(" AND status = $%d", argIdx)
		query += cond
		countQuery += cond
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.RoleID != nil {
		cond := fmt.Sprintf(" AND role_id = $%d", argIdx)
		query += cond
		countQuery += cond
		args = append(args, *filter.RoleID)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query += " ORDER BY username ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// ExistsByUsername checks login name uniqueness within an account type.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username, accountType string) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM users WHERE username = $1 AND type = $2 AND deletion_mark = FALSE
	)`

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, query, username, accountType).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

// ResetAllToActive flips every non-deleted account to active.
func (r *UserRepo) ResetAllToActive(ctx context.Context) (int64, error) {
	query := `UPDATE users SET status = $1, updated_at = NOW()
		WHERE deletion_mark = FALSE AND status <> $1`

	result, err := r.querier(ctx).Exec(ctx, query, auth.StatusActive)
	if err != nil {
		return 0, fmt.Errorf("reset users to active: %w", err)
	}

	return result.RowsAffected(), nil
}

// AddFavorite records a song in the user's favorites.
func (r *UserRepo) AddFavorite(ctx context.Context, userID, songID id.ID) error {
	query := `
		INSERT INTO user_favorites (user_id, song_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, song_id) DO NOTHING
	`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, songID); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	return nil
}

// RemoveFavorite drops a song from the user's favorites.
func (r *UserRepo) RemoveFavorite(ctx context.Context, userID, songID id.ID) error {
	query := `DELETE FROM user_favorites WHERE user_id = $1 AND song_id = $2`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, songID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	return nil
}

// ListFavorites returns the user's favorite song IDs.
func (r *UserRepo) ListFavorites(ctx context.Context, userID id.ID) ([]id.ID, error) {
	query := `SELECT song_id FROM user_favorites WHERE user_id = $1 ORDER BY song_id`

	return r.scanIDList(ctx, query, userID)
}

// AttachPlaylist links a playlist to the user, appended at the end of the
// ordered list. Re-attaching keeps the original position.
func (r *UserRepo) AttachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	query := `
		INSERT INTO user_playlists (user_id, playlist_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1
		  FROM user_playlists
		 WHERE user_id = $1
		ON CONFLICT (user_id, playlist_id) DO NOTHING
	`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, playlistID); err != nil {
		return fmt.Errorf("attach playlist: %w", err)
	}

	return nil
}

// DetachPlaylist unlinks a playlist from the user.
func (r *UserRepo) DetachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	query := `DELETE FROM user_playlists WHERE user_id = $1 AND playlist_id = $2`

	if _, err := r.querier(ctx).Exec(ctx, query, userID, playlistID); err != nil {
		return fmt.Errorf("detach playlist: %w", err)
	}

	return nil
}

// ListPlaylists returns the user's playlist IDs in attachment order.
func (r *UserRepo) ListPlaylists(ctx context.Context, userID id.ID) ([]id.ID, error) {
	query := `SELECT playlist_id FROM user_playlists WHERE user_id = $1 ORDER BY position`

	return r.scanIDList(ctx, query, userID)
}

// DetachAllPlaylists removes every playlist link for the user.
func (r *UserRepo) DetachAllPlaylists(ctx context.Context, userID id.ID) error {
	query := `DELETE FROM user_playlists WHERE user_id = $1`

	if _, err := r.querier(ctx).Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("detach all playlists: %w", err)
	}

	return nil
}

func (r *UserRepo) scanIDList(ctx context.Context, query string, args ...any) ([]id.ID, error) {
	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []id.ID
	for rows.Next() {
		var entityID id.ID
		if err := rows.Scan(&entityID); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, entityID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}

	return ids, nil
}

// Ensure interface compliance
var _ auth.UserRepository = (*UserRepo)(nil)
