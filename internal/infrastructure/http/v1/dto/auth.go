package dto

import (
	"time"

	"melodia/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Type     string `json:"type,omitempty"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		Username: r.Username,
		Password: r.Password,
		Type:     r.Type,
	}
}

// RefreshRequest for token refresh. The body token is optional; browser
// clients carry the refresh token in the auth cookie instead.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// RequestResetRequest starts the password reset flow.
type RequestResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmResetRequest completes the password reset flow.
type ConfirmResetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// --- Response DTOs ---

// TokenResponse represents token pair response.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair creates response from domain token pair.
func FromTokenPair(tp *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  tp.AccessToken,
		RefreshToken: tp.RefreshToken,
		ExpiresAt:    tp.ExpiresAt,
		TokenType:    tp.TokenType,
	}
}

// AccountResponse represents the authenticated account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Type      string    `json:"type"`
	FullName  string    `json:"fullName,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	RoleID    string    `json:"roleId"`
	SingerID  string    `json:"singerId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) *AccountResponse {
	resp := &AccountResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Type:      u.Type,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		RoleID:    u.RoleID.String(),
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
	if u.SingerID != nil {
		resp.SingerID = u.SingerID.String()
	}
	return resp
}

// LoginResponse includes tokens and account info.
type LoginResponse struct {
	Tokens *TokenResponse   `json:"tokens"`
	User   *AccountResponse `json:"user"`
}
