package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	appctx "melodia/internal/core/context"
	"melodia/internal/domain/auth"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// Auth middleware validates the access token and populates user context.
// The token comes from the Authorization header, with the auth cookie as a
// fallback for browser clients. Only identity claims are trusted from the
// token; permissions are resolved live by the permission guard.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			_ = c.Error(apperror.NewAuthRequired("missing access token"))
			c.Abort()
			return
		}

		claims, err := verifier.VerifyAccessToken(token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		user := &appctx.UserContext{
			UserID:   claims.UserID,
			RoleID:   claims.RoleID,
			SingerID: claims.SingerID,
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)
		c.Set("role_id", user.RoleID)

		c.Next()
	}
}

// OptionalAuth populates user context when a valid token is present, but
// lets anonymous requests through.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := verifier.VerifyAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		user := &appctx.UserContext{
			UserID:   claims.UserID,
			RoleID:   claims.RoleID,
			SingerID: claims.SingerID,
		}
		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", user.UserID)
		c.Set("role_id", user.RoleID)

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie(auth.AccessCookieName); err == nil {
		return cookie
	}

	return ""
}
