// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains authenticated user information resolved from the
// access token. Permissions are deliberately absent: they are resolved live
// from the role registry on every guarded request, never from token claims.
type UserContext struct {
	UserID   string
	Username string
	RoleID   string
	SingerID string // set only for accounts linked to a singer profile
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetRoleID returns the caller's role ID or empty string.
func GetRoleID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.RoleID
	}
	return ""
}

// GetSingerID returns the caller's linked singer ID or empty string.
func GetSingerID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.SingerID
	}
	return ""
}
