// Package main provides a CLI tool for seeding the database with the
// permission table, baseline roles and an admin account.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/id"
	"melodia/internal/domain/auth"
	"melodia/internal/infrastructure/storage/postgres"
	"melodia/pkg/logger"
)

// routePermission is one seeded guard entry. Paths use the registered route
// patterns, parameters included, because the guard matches against them.
type routePermission struct {
	name   string
	method string
	path   string
}

var catalogPermissions = func() []routePermission {
	var out []routePermission
	for _, cat := range []string{"topics", "singers", "playlists"} {
		out = append(out,
			routePermission{cat + ".list", "GET", "/api/v1/" + cat},
			routePermission{cat + ".create", "POST", "/api/v1/" + cat},
			routePermission{cat + ".get", "GET", "/api/v1/" + cat + "/:id"},
			routePermission{cat + ".get_by_slug", "GET", "/api/v1/" + cat + "/slug/:slug"},
			routePermission{cat + ".update", "PUT", "/api/v1/" + cat + "/:id"},
			routePermission{cat + ".delete", "DELETE", "/api/v1/" + cat + "/:id"},
			routePermission{cat + ".deletion_mark", "POST", "/api/v1/" + cat + "/:id/deletion-mark"},
		)
	}
	return out
}()

var listenerPermissions = []routePermission{
	{"auth.logout", "POST", "/api/v1/auth/logout"},
	{"profile.get", "GET", "/api/v1/users/me"},
	{"profile.update", "PUT", "/api/v1/users/me"},
	{"favorites.list", "GET", "/api/v1/users/me/favorites"},
	{"favorites.add", "POST", "/api/v1/users/me/favorites/:songId"},
	{"favorites.remove", "DELETE", "/api/v1/users/me/favorites/:songId"},
	{"playlists.attach", "POST", "/api/v1/users/me/playlists/:playlistId"},
	{"playlists.detach", "DELETE", "/api/v1/users/me/playlists/:playlistId"},
	{"songs.list", "GET", "/api/v1/songs"},
	{"songs.get", "GET", "/api/v1/songs/:id"},
	{"songs.get_by_slug", "GET", "/api/v1/songs/slug/:slug"},
	{"songs.listen", "POST", "/api/v1/songs/:id/listen"},
	{"songs.like", "POST", "/api/v1/songs/:id/like"},
	{"songs.unlike", "DELETE", "/api/v1/songs/:id/like"},
	{"songs.by_singer", "GET", "/api/v1/singers/:id/songs"},
	{"topics.list", "GET", "/api/v1/topics"},
	{"topics.get", "GET", "/api/v1/topics/:id"},
	{"singers.list", "GET", "/api/v1/singers"},
	{"singers.get", "GET", "/api/v1/singers/:id"},
	{"playlists.list", "GET", "/api/v1/playlists"},
	{"playlists.get", "GET", "/api/v1/playlists/:id"},
	{"orders.create", "POST", "/api/v1/orders"},
	{"orders.list_mine", "GET", "/api/v1/orders"},
	{"orders.get", "GET", "/api/v1/orders/:id"},
}

var singerPermissions = []routePermission{
	{"songs.publish", "POST", "/api/v1/songs"},
	{"songs.update_own", "PUT", "/api/v1/songs/:id"},
	{"songs.delete_own", "DELETE", "/api/v1/songs/:id"},
	{"media.upload", "POST", "/api/v1/media"},
	{"media.download", "GET", "/api/v1/media/:key"},
	{"media.presign", "GET", "/api/v1/media/:key/url"},
}

var adminPermissions = []routePermission{
	{"admin.users.list", "GET", "/api/v1/admin/users"},
	{"admin.users.create", "POST", "/api/v1/admin/users"},
	{"admin.users.get", "GET", "/api/v1/admin/users/:id"},
	{"admin.users.delete", "DELETE", "/api/v1/admin/users/:id"},
	{"admin.users.status", "POST", "/api/v1/admin/users/:id/status"},
	{"admin.users.role", "POST", "/api/v1/admin/users/:id/role"},
	{"admin.users.link_singer", "POST", "/api/v1/admin/users/:id/singer"},
	{"admin.users.unlink_singer", "DELETE", "/api/v1/admin/users/:id/singer"},
	{"admin.users.reset_active", "POST", "/api/v1/admin/users/reset-active"},
	{"admin.permissions.list", "GET", "/api/v1/admin/permissions"},
	{"admin.permissions.create", "POST", "/api/v1/admin/permissions"},
	{"admin.permissions.get", "GET", "/api/v1/admin/permissions/:id"},
	{"admin.permissions.update", "PUT", "/api/v1/admin/permissions/:id"},
	{"admin.permissions.delete", "DELETE", "/api/v1/admin/permissions/:id"},
	{"admin.permissions.delete_all", "DELETE", "/api/v1/admin/permissions"},
	{"admin.roles.list", "GET", "/api/v1/admin/roles"},
	{"admin.roles.create", "POST", "/api/v1/admin/roles"},
	{"admin.roles.get", "GET", "/api/v1/admin/roles/:id"},
	{"admin.roles.update", "PUT", "/api/v1/admin/roles/:id"},
	{"admin.roles.delete", "DELETE", "/api/v1/admin/roles/:id"},
	{"admin.singers.status", "POST", "/api/v1/admin/singers/:id/status"},
	{"admin.songs.normalize", "POST", "/api/v1/admin/singers/:id/songs/normalize"},
	{"admin.orders.month", "GET", "/api/v1/admin/orders"},
	{"admin.orders.complete", "POST", "/api/v1/admin/orders/:id/complete"},
	{"media.delete", "DELETE", "/api/v1/media/:key"},
	{"playlists.replace_songs", "PUT", "/api/v1/playlists/:id/songs"},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	permIDs, err := seedPermissions(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed permissions", "error", err)
	}

	listenerSet := permissionSet(permIDs, listenerPermissions)
	singerSet := append(permissionSet(permIDs, singerPermissions), listenerSet...)

	adminSet := make([]id.ID, 0, len(permIDs))
	for _, pid := range permIDs {
		adminSet = append(adminSet, pid)
	}

	adminRoleID, err := seedRole(ctx, pool, log, "admin", adminSet)
	if err != nil {
		log.Fatalw("failed to seed admin role", "error", err)
	}
	if _, err := seedRole(ctx, pool, log, "listener", listenerSet); err != nil {
		log.Fatalw("failed to seed listener role", "error", err)
	}
	if _, err := seedRole(ctx, pool, log, "singer", singerSet); err != nil {
		log.Fatalw("failed to seed singer role", "error", err)
	}

	if err := seedAdminUser(ctx, pool, log, adminRoleID); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	log.Info("seeding completed successfully")
}

// seedPermissions upserts every known route permission and returns name -> id.
func seedPermissions(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (map[string]id.ID, error) {
	all := make([]routePermission, 0, len(listenerPermissions)+len(singerPermissions)+len(adminPermissions)+len(catalogPermissions))
	all = append(all, listenerPermissions...)
	all = append(all, singerPermissions...)
	all = append(all, adminPermissions...)
	all = append(all, catalogPermissions...)

	out := make(map[string]id.ID, len(all))
	for _, p := range all {
		if _, seen := out[p.name]; seen {
			continue
		}

		var existing id.ID
		err := pool.QueryRow(ctx, `SELECT id FROM permissions WHERE name = $1`, p.name).Scan(&existing)
		if err == nil {
			out[p.name] = existing
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check permission %s: %w", p.name, err)
		}

		permID := id.New()
		_, err = pool.Exec(ctx,
			`INSERT INTO permissions (id, name, method, path, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, now(), now(), 1)`,
			permID, p.name, p.method, p.path,
		)
		if err != nil {
			return nil, fmt.Errorf("insert permission %s: %w", p.name, err)
		}
		out[p.name] = permID
	}

	log.Infow("permissions seeded", "count", len(out))
	return out, nil
}

func permissionSet(permIDs map[string]id.ID, perms []routePermission) []id.ID {
	out := make([]id.ID, 0, len(perms))
	for _, p := range perms {
		if pid, ok := permIDs[p.name]; ok {
			out = append(out, pid)
		}
	}
	return out
}

func seedRole(ctx context.Context, pool *postgres.Pool, log *logger.Logger, name string, permIDs []id.ID) (id.ID, error) {
	var roleID id.ID
	err := pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		roleID = id.New()
		_, err = pool.Exec(ctx,
			`INSERT INTO roles (id, name, created_at, updated_at, version)
			 VALUES ($1, $2, now(), now(), 1)`,
			roleID, name,
		)
	}
	if err != nil {
		return id.Nil(), fmt.Errorf("upsert role %s: %w", name, err)
	}

	// The role always ends up with exactly the seeded permission set.
	if _, err := pool.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return id.Nil(), fmt.Errorf("clear role permissions: %w", err)
	}
	for _, pid := range permIDs {
		_, err := pool.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			roleID, pid,
		)
		if err != nil {
			return id.Nil(), fmt.Errorf("link permission: %w", err)
		}
	}

	log.Infow("role seeded", "role", name, "permissions", len(permIDs))
	return roleID, nil
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger, roleID id.ID) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@melodia.local"
	}

	var existing id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM users WHERE username = $1 AND type = $2`,
		username, auth.TypeAdmin,
	).Scan(&existing)
	if err == nil {
		log.Infow("admin user already exists", "username", username, "user_id", existing)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, full_name,
			type, status, role_id, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, $4, 'System Admin', $5, $6, $7, now(), now(), 1)
	`, userID, username, email, string(hash), auth.TypeAdmin, auth.StatusActive, roleID)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "username", username, "user_id", userID)
	return nil
}
