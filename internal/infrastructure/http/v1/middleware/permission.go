package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	appctx "melodia/internal/core/context"
	"melodia/internal/core/id"
	"melodia/internal/domain/access"
)

// RoleResolver expands a role into its live permission set.
type RoleResolver interface {
	FindWithPermissions(ctx context.Context, roleID id.ID) (*access.Role, error)
}

// RequirePermission guards a route by the caller's role. The role is
// expanded from the registry on every request, never from token claims, so a
// permission granted or revoked after login takes effect on the next request
// without reissuing tokens.
//
// Permissions are matched against the registered route pattern, so a
// permission with path "/api/v1/songs/:id" covers every concrete id.
func RequirePermission(resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewAuthRequired("authentication required"))
			c.Abort()
			return
		}

		roleID, err := id.Parse(user.RoleID)
		if err != nil {
			_ = c.Error(apperror.NewTokenInvalid("malformed role claim"))
			c.Abort()
			return
		}

		role, err := resolver.FindWithPermissions(c.Request.Context(), roleID)
		if err != nil {
			if apperror.IsNotFound(err) {
				_ = c.Error(
					apperror.NewForbidden("role no longer exists").
						WithDetail("role_id", user.RoleID),
				)
				c.Abort()
				return
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		method := c.Request.Method
		path := c.FullPath()
		if !role.Allows(method, path) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("method", method).
					WithDetail("path", path),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
