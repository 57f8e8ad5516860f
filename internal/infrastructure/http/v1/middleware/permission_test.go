package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/access"
	"melodia/internal/domain/auth"
)

type fakeRoleResolver struct {
	roles map[id.ID]*access.Role
}

func (f *fakeRoleResolver) FindWithPermissions(_ context.Context, roleID id.ID) (*access.Role, error) {
	role, ok := f.roles[roleID]
	if !ok {
		return nil, apperror.NewNotFound("role", roleID.String())
	}
	return role, nil
}

func newGuardedRouter(jwtService *auth.JWTService, resolver *fakeRoleResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/api/v1/songs",
		Auth(jwtService),
		RequirePermission(resolver),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func TestRequirePermission_ResolvesLivePerRequest(t *testing.T) {
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("guard-test-secret"))

	roleID := id.New()
	user := &auth.User{
		ID:     id.New(),
		RoleID: roleID,
	}
	token, _, err := jwtService.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	resolver := &fakeRoleResolver{roles: map[id.ID]*access.Role{
		roleID: {Name: "listener"},
	}}
	router := newGuardedRouter(jwtService, resolver)

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/songs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(); code != http.StatusForbidden {
		t.Fatalf("expected 403 before grant, got %d", code)
	}

	// Grant the permission in the registry. The same unchanged access token
	// must now pass: the guard reads the registry, not the token.
	perm := access.NewPermission("songs.list", http.MethodGet, "/api/v1/songs")
	resolver.roles[roleID].Permissions = []access.Permission{*perm}

	if code := do(); code != http.StatusOK {
		t.Fatalf("expected 200 after grant with same token, got %d", code)
	}

	// Revoke again: access disappears without waiting for token expiry.
	resolver.roles[roleID].Permissions = nil

	if code := do(); code != http.StatusForbidden {
		t.Fatalf("expected 403 after revoke, got %d", code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("guard-test-secret"))
	resolver := &fakeRoleResolver{roles: map[id.ID]*access.Role{}}
	router := newGuardedRouter(jwtService, resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/songs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ExpiredTokenIsUnauthorized(t *testing.T) {
	cfg := auth.DefaultJWTConfig("guard-test-secret")
	cfg.AccessTokenTTL = -time.Minute
	jwtService := auth.NewJWTService(cfg)

	resolver := &fakeRoleResolver{roles: map[id.ID]*access.Role{}}
	router := newGuardedRouter(jwtService, resolver)

	user := &auth.User{ID: id.New(), RoleID: id.New()}
	token, _, err := jwtService.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/songs", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestAuth_CookieFallback(t *testing.T) {
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("guard-test-secret"))

	roleID := id.New()
	perm := access.NewPermission("songs.list", http.MethodGet, "/api/v1/songs")
	resolver := &fakeRoleResolver{roles: map[id.ID]*access.Role{
		roleID: {Name: "listener", Permissions: []access.Permission{*perm}},
	}}
	router := newGuardedRouter(jwtService, resolver)

	user := &auth.User{ID: id.New(), RoleID: roleID}
	token, _, err := jwtService.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/songs", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie token, got %d", w.Code)
	}
}
