package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
)

// nopTxManager runs the function directly, no database involved.
type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeUserRepo is an in-memory credential store.
type fakeUserRepo struct {
	users map[id.ID]*User
}

func newFakeUserRepo(users ...*User) *fakeUserRepo {
	m := make(map[id.ID]*User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username, accountType string) (*User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Type == accountType {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *fakeUserRepo) FindByRefreshFingerprint(ctx context.Context, fingerprint string) (*User, error) {
	for _, u := range r.users {
		if u.RefreshFP != nil && *u.RefreshFP == fingerprint {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", "fingerprint")
}

func (r *fakeUserRepo) SetRefreshFingerprint(ctx context.Context, userID id.ID, fingerprint string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	u.RefreshFP = &fingerprint
	return nil
}

func (r *fakeUserRepo) RotateRefreshFingerprint(ctx context.Context, userID id.ID, oldFP, newFP string) (bool, error) {
	u, ok := r.users[userID]
	if !ok {
		return false, apperror.NewNotFound("user", userID.String())
	}
	if u.RefreshFP == nil || *u.RefreshFP != oldFP {
		return false, nil
	}
	u.RefreshFP = &newFP
	return true, nil
}

func (r *fakeUserRepo) ClearRefreshFingerprint(ctx context.Context, userID id.ID) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	u.RefreshFP = nil
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID id.ID, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, userID id.ID, status string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	u.Status = status
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, userID, roleID id.ID) error {
	u, ok := r.users[userID]
	if !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	u.RoleID = roleID
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, userID id.ID) error {
	delete(r.users, userID)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filter UserFilter) ([]User, int64, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username, accountType string) (bool, error) {
	_, err := r.FindByUsername(ctx, username, accountType)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) ResetAllToActive(ctx context.Context) (int64, error) {
	var n int64
	for _, u := range r.users {
		if !u.DeletionMark && u.Status != StatusActive {
			u.Status = StatusActive
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) AddFavorite(ctx context.Context, userID, songID id.ID) error {
	u := r.users[userID]
	u.FavoriteSongIDs = append(u.FavoriteSongIDs, songID)
	return nil
}

func (r *fakeUserRepo) RemoveFavorite(ctx context.Context, userID, songID id.ID) error {
	u := r.users[userID]
	out := u.FavoriteSongIDs[:0]
	for _, sid := range u.FavoriteSongIDs {
		if sid != songID {
			out = append(out, sid)
		}
	}
	u.FavoriteSongIDs = out
	return nil
}

func (r *fakeUserRepo) ListFavorites(ctx context.Context, userID id.ID) ([]id.ID, error) {
	return r.users[userID].FavoriteSongIDs, nil
}

func (r *fakeUserRepo) AttachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	u := r.users[userID]
	u.PlaylistIDs = append(u.PlaylistIDs, playlistID)
	return nil
}

func (r *fakeUserRepo) DetachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	u := r.users[userID]
	out := u.PlaylistIDs[:0]
	for _, pid := range u.PlaylistIDs {
		if pid != playlistID {
			out = append(out, pid)
		}
	}
	u.PlaylistIDs = out
	return nil
}

func (r *fakeUserRepo) ListPlaylists(ctx context.Context, userID id.ID) ([]id.ID, error) {
	return r.users[userID].PlaylistIDs, nil
}

func (r *fakeUserRepo) DetachAllPlaylists(ctx context.Context, userID id.ID) error {
	r.users[userID].PlaylistIDs = nil
	return nil
}

func testUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := NewUser("alice", TypeListener, string(hash), id.New())
	u.Email = "alice@example.com"
	return u
}

func newTestService(users UserRepository) *Service {
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(users, nopTxManager{}, jwtSvc)
}

func TestLogin_Success(t *testing.T) {
	user := testUser(t, "secret123")
	svc := newTestService(newFakeUserRepo(user))

	pair, got, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected both tokens to be set")
	}
	if user.RefreshFP == nil || *user.RefreshFP != Fingerprint(pair.RefreshToken) {
		t.Error("expected refresh fingerprint to be persisted")
	}
	if len(pair.Cookies) != 2 {
		t.Fatalf("expected 2 cookie specs, got %d", len(pair.Cookies))
	}
	for _, c := range pair.Cookies {
		if !c.HTTPOnly || !c.Secure || !c.SameSiteStrict {
			t.Errorf("cookie %s missing hardening flags", c.Name)
		}
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	user := testUser(t, "secret123")
	inactive := testUser(t, "secret123")
	inactive.Username = "bob"
	inactive.Status = StatusInactive
	deleted := testUser(t, "secret123")
	deleted.Username = "carol"
	deleted.DeletionMark = true

	svc := newTestService(newFakeUserRepo(user, inactive, deleted))

	cases := []struct {
		name  string
		creds Credentials
	}{
		{"unknown user", Credentials{Username: "nobody", Password: "secret123"}},
		{"wrong password", Credentials{Username: "alice", Password: "wrong"}},
		{"inactive account", Credentials{Username: "bob", Password: "secret123"}},
		{"deleted account", Credentials{Username: "carol", Password: "secret123"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.creds)
			if !apperror.HasCode(err, apperror.CodeInvalidCredentials) {
				t.Fatalf("expected InvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRefresh_RotatesExactlyOnce(t *testing.T) {
	user := testUser(t, "secret123")
	svc := newTestService(newFakeUserRepo(user))

	pair, _, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// First refresh with the issued token succeeds.
	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("expected a rotated refresh token")
	}

	// Replaying the rotated-away token must fail with TokenRevoked.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if !apperror.IsTokenRevoked(err) {
		t.Fatalf("expected TokenRevoked on replay, got %v", err)
	}

	// The rotated token is still good.
	if _, err := svc.Refresh(context.Background(), next.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestRefresh_MalformedToken(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	if !apperror.HasCode(err, apperror.CodeTokenInvalid) {
		t.Fatalf("expected TokenInvalid, got %v", err)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	user := testUser(t, "secret123")
	svc := newTestService(newFakeUserRepo(user))

	pair, _, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	if !apperror.HasCode(err, apperror.CodeTokenInvalid) {
		t.Fatalf("expected TokenInvalid for an access token, got %v", err)
	}
}

func TestLogout_InvalidatesRefresh(t *testing.T) {
	user := testUser(t, "secret123")
	svc := newTestService(newFakeUserRepo(user))

	pair, _, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if !apperror.IsTokenRevoked(err) {
		t.Fatalf("expected TokenRevoked after logout, got %v", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	user := testUser(t, "secret123")
	svc := newTestService(newFakeUserRepo(user))

	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}

func TestLogin_InvalidatesOlderRefreshTokens(t *testing.T) {
	user := testUser(t, "secret123")
	svc := newTestService(newFakeUserRepo(user))

	first, _, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	// JWT ids are minted from the clock, keep the two logins apart.
	time.Sleep(2 * time.Millisecond)
	if _, _, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatalf("second login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	if !apperror.IsTokenRevoked(err) {
		t.Fatalf("expected first session's refresh token to be revoked, got %v", err)
	}
}
