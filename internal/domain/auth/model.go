// Package auth provides authentication and token domain logic.
package auth

import (
	"context"
	"time"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Account types. Username uniqueness is scoped to the type, so an
// administrator and a listener may share the same login name.
const (
	TypeListener = "listener"
	TypeAdmin    = "admin"
)

// User represents an account record. The refresh-token fingerprint is the
// single server-side handle on the account's session: only the most recently
// issued refresh token matches it.
type User struct {
	ID           id.ID  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email,omitempty"`
	Type         string `db:"type" json:"type"`
	PasswordHash string `db:"password_hash" json:"-"`
	FullName     string `db:"full_name" json:"fullName,omitempty"`
	AvatarURL    string `db:"avatar_url" json:"avatarUrl,omitempty"`

	RoleID   id.ID  `db:"role_id" json:"roleId"`
	SingerID *id.ID `db:"singer_id" json:"singerId,omitempty"`

	Status       string  `db:"status" json:"status"`
	DeletionMark bool    `db:"deletion_mark" json:"-"`
	RefreshFP    *string `db:"refresh_fp" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`

	// Loaded relations
	FavoriteSongIDs []id.ID `db:"-" json:"favoriteSongIds,omitempty"`
	PlaylistIDs     []id.ID `db:"-" json:"playlistIds,omitempty"`
}

// NewUser creates a new active user.
func NewUser(username, accountType, passwordHash string, roleID id.ID) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Username:     username,
		Type:         accountType,
		PasswordHash: passwordHash,
		RoleID:       roleID,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate checks user invariants.
func (u *User) Validate(ctx context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if u.Type != TypeListener && u.Type != TypeAdmin {
		return apperror.NewValidation("unknown account type").WithDetail("field", "type")
	}
	if id.IsNil(u.RoleID) {
		return apperror.NewValidation("role is required").WithDetail("field", "roleId")
	}
	return nil
}

// CanAuthenticate reports whether the account may receive tokens.
// Inactive and soft-deleted accounts are treated exactly like missing ones
// by the token service, so this returns a plain bool, not an error.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActive && !u.DeletionMark
}

// HasSinger reports whether the account is linked to a singer profile.
func (u *User) HasSinger() bool {
	return u.SingerID != nil && !id.IsNil(*u.SingerID)
}

// TokenPair contains both session tokens with their cookie metadata.
type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	TokenType    string       `json:"tokenType"`
	Cookies      []CookieSpec `json:"-"`
}

// CookieSpec tells the transport layer how to set a token cookie.
// MaxAge always equals the token's own TTL.
type CookieSpec struct {
	Name           string
	Value          string
	MaxAge         time.Duration
	HTTPOnly       bool
	Secure         bool
	SameSiteStrict bool
}

// Credentials for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Type     string `json:"type,omitempty"`
}
