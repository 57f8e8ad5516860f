package dto

import (
	"melodia/internal/domain/users"
)

// --- Request DTOs ---

// RegisterRequest is the public self-registration payload. Role and account
// type are assigned server side.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName,omitempty"`
}

// CreateUserRequest creates an account with explicit type and role. Admin
// surface only.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required,min=6"`
	Type     string `json:"type,omitempty"`
	FullName string `json:"fullName,omitempty"`
	RoleID   string `json:"roleId" binding:"required,uuid"`
}

// UpdateProfileRequest changes profile fields. Absent fields stay untouched.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty"`
	FullName  *string `json:"fullName,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// SetStatusRequest flips the account status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ChangeRoleRequest reassigns the account's role.
type ChangeRoleRequest struct {
	RoleID string `json:"roleId" binding:"required,uuid"`
}

// LinkSingerRequest links the account to a singer profile.
type LinkSingerRequest struct {
	SingerID string `json:"singerId" binding:"required,uuid"`
}

// --- Response DTOs ---

// ProfileResponse is the account plus its expanded role.
type ProfileResponse struct {
	*AccountResponse
	Role            *RoleResponse `json:"role,omitempty"`
	FavoriteSongIDs []string      `json:"favoriteSongIds"`
	PlaylistIDs     []string      `json:"playlistIds"`
}

// FromProfile creates response from the domain profile.
func FromProfile(p *users.Profile) *ProfileResponse {
	resp := &ProfileResponse{
		AccountResponse: FromUser(&p.User),
		FavoriteSongIDs: idStrings(p.FavoriteSongIDs),
		PlaylistIDs:     idStrings(p.PlaylistIDs),
	}
	if resp.FavoriteSongIDs == nil {
		resp.FavoriteSongIDs = []string{}
	}
	if resp.PlaylistIDs == nil {
		resp.PlaylistIDs = []string{}
	}
	if p.Role != nil {
		resp.Role = FromRole(p.Role)
	}
	return resp
}
