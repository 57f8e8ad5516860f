package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/pkg/logger"
)

// Cookie names used by the HTTP layer.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// Service issues, rotates and revokes session tokens. All failure paths that
// could reveal whether an account exists collapse into InvalidCredentials.
type Service struct {
	users      UserRepository
	txManager  tx.Manager
	jwtService *JWTService
}

// NewService creates a new token service.
func NewService(users UserRepository, txManager tx.Manager, jwtService *JWTService) *Service {
	return &Service{
		users:      users,
		txManager:  txManager,
		jwtService: jwtService,
	}
}

// Login authenticates the credentials and returns a fresh token pair.
// Missing account, inactive account, soft-deleted account and wrong password
// all return the same InvalidCredentials.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	accountType := creds.Type
	if accountType == "" {
		accountType = TypeListener
	}

	user, err := s.users.FindByUsername(ctx, creds.Username, accountType)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewInvalidCredentials()
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, nil, apperror.NewInvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil, apperror.NewInvalidCredentials()
	}

	pair, fingerprint, err := s.mintPair(user)
	if err != nil {
		return nil, nil, err
	}

	// Overwriting the fingerprint invalidates every previously issued
	// refresh token for this user.
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.SetRefreshFingerprint(ctx, user.ID, fingerprint)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("persist refresh fingerprint: %w", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "type", user.Type)

	return pair, user, nil
}

// Refresh verifies the presented refresh token, then rotates it. The
// fingerprint swap is conditional on the presented token's fingerprint, so
// of two concurrent refreshes only one wins; the loser gets TokenRevoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := s.jwtService.VerifyRefreshToken(refreshToken); err != nil {
		return nil, err
	}

	oldFP := Fingerprint(refreshToken)

	user, err := s.users.FindByRefreshFingerprint(ctx, oldFP)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Covers logout, rotation and login elsewhere.
			return nil, apperror.NewTokenRevoked()
		}
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, apperror.NewTokenRevoked()
	}

	pair, newFP, err := s.mintPair(user)
	if err != nil {
		return nil, err
	}

	var rotated bool
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rotated, err = s.users.RotateRefreshFingerprint(ctx, user.ID, oldFP, newFP)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("rotate refresh fingerprint: %w", err)
	}
	if !rotated {
		return nil, apperror.NewTokenRevoked()
	}

	return pair, nil
}

// Logout clears the stored fingerprint, making every refresh token for the
// user unusable at once. Already-issued access tokens keep working until
// their natural expiry. Calling Logout twice is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.ClearRefreshFingerprint(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("clear refresh fingerprint: %w", err)
	}
	logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// mintPair generates both tokens and the new refresh fingerprint.
func (s *Service) mintPair(user *User) (*TokenPair, string, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, _, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate refresh token: %w", err)
	}

	pair := &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
		Cookies: []CookieSpec{
			{
				Name:           AccessCookieName,
				Value:          accessToken,
				MaxAge:         s.jwtService.AccessTokenTTL(),
				HTTPOnly:       true,
				Secure:         true,
				SameSiteStrict: true,
			},
			{
				Name:           RefreshCookieName,
				Value:          refreshToken,
				MaxAge:         s.jwtService.RefreshTokenTTL(),
				HTTPOnly:       true,
				Secure:         true,
				SameSiteStrict: true,
			},
		},
	}
	return pair, Fingerprint(refreshToken), nil
}

// Fingerprint is the server-stored representation of a refresh token.
func Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
