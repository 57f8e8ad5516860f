package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"melodia/internal/core/apperror"
)

// Token kinds carried in the "typ" claim so an access token can never be
// replayed as a refresh token or vice versa.
const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// DefaultJWTConfig returns default token configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:          secret,
		Issuer:          "melodia",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

// Claims represents session token claims. Permissions are deliberately NOT
// embedded: the guard resolves them live so role edits apply without re-login.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	RoleID   string `json:"rid"`
	SingerID string `json:"sid,omitempty"`
	Kind     string `json:"typ"`
}

// JWTService mints and verifies session tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration { return s.config.AccessTokenTTL }

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *JWTService) RefreshTokenTTL() time.Duration { return s.config.RefreshTokenTTL }

// GenerateAccessToken mints a short-lived access token.
func (s *JWTService) GenerateAccessToken(user *User) (string, time.Time, error) {
	return s.generate(user, tokenKindAccess, s.config.AccessTokenTTL)
}

// GenerateRefreshToken mints a refresh token.
func (s *JWTService) GenerateRefreshToken(user *User) (string, time.Time, error) {
	return s.generate(user, tokenKindRefresh, s.config.RefreshTokenTTL)
}

func (s *JWTService) generate(user *User, kind string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        fmt.Sprintf("%d", now.UnixNano()),
		},
		UserID: user.ID.String(),
		RoleID: user.RoleID.String(),
		Kind:   kind,
	}
	if user.HasSinger() {
		claims.SingerID = user.SingerID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken validates an access token and returns its claims.
// Expired tokens fail with AuthRequired, malformed or tampered ones with
// TokenInvalid. The split matters only for diagnostics, both are denials.
func (s *JWTService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, tokenKindAccess)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (s *JWTService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return s.verify(tokenString, tokenKindRefresh)
}

func (s *JWTService) verify(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.NewAuthRequired("token expired")
		}
		return nil, apperror.NewTokenInvalid("malformed token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.NewTokenInvalid("invalid token claims")
	}
	if claims.Kind != kind {
		return nil, apperror.NewTokenInvalid("wrong token kind")
	}
	return claims, nil
}
