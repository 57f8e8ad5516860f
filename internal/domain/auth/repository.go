package auth

import (
	"context"

	"melodia/internal/core/id"
)

// UserRepository is the credential store. It never reaches into other
// registries; cross-entity cascades are sequenced by the users service.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// FindByUsername retrieves user by login name within an account type.
	FindByUsername(ctx context.Context, username, accountType string) (*User, error)

	// FindByEmail retrieves user by email address (used by password reset).
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByRefreshFingerprint retrieves the user whose stored fingerprint
	// matches exactly.
	FindByRefreshFingerprint(ctx context.Context, fingerprint string) (*User, error)

	// SetRefreshFingerprint stores a fingerprint unconditionally (login).
	SetRefreshFingerprint(ctx context.Context, userID id.ID, fingerprint string) error

	// RotateRefreshFingerprint replaces the stored fingerprint only if it
	// still equals oldFP. Returns false when a concurrent rotation or logout won.
	RotateRefreshFingerprint(ctx context.Context, userID id.ID, oldFP, newFP string) (bool, error)

	// ClearRefreshFingerprint removes the fingerprint. Clearing an already
	// empty fingerprint is not an error.
	ClearRefreshFingerprint(ctx context.Context, userID id.ID) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error

	// UpdateStatus sets the account status.
	UpdateStatus(ctx context.Context, userID id.ID, status string) error

	// UpdateRole reassigns the account's role.
	UpdateRole(ctx context.Context, userID, roleID id.ID) error

	// Update persists profile fields (with optimistic locking).
	Update(ctx context.Context, user *User) error

	// Delete removes the user row permanently.
	Delete(ctx context.Context, userID id.ID) error

	// List retrieves users with filtering.
	List(ctx context.Context, filter UserFilter) ([]User, int64, error)

	// ExistsByUsername checks login name uniqueness within an account type.
	ExistsByUsername(ctx context.Context, username, accountType string) (bool, error)

	// ResetAllToActive flips every non-deleted account to active and returns
	// the number of rows affected.
	ResetAllToActive(ctx context.Context) (int64, error)

	// Favorites and playlist references.
	AddFavorite(ctx context.Context, userID, songID id.ID) error
	RemoveFavorite(ctx context.Context, userID, songID id.ID) error
	ListFavorites(ctx context.Context, userID id.ID) ([]id.ID, error)
	AttachPlaylist(ctx context.Context, userID, playlistID id.ID) error
	DetachPlaylist(ctx context.Context, userID, playlistID id.ID) error
	ListPlaylists(ctx context.Context, userID id.ID) ([]id.ID, error)
	DetachAllPlaylists(ctx context.Context, userID id.ID) error
}

// UserFilter for listing users.
type UserFilter struct {
	Search string
	Type   string
	Status string
	RoleID *id.ID
	Limit  int
	Offset int
}
