package users

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/access"
	"melodia/internal/domain/auth"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memUserRepo is a map-backed credential store.
type memUserRepo struct {
	users map[id.ID]*auth.User
}

func newMemUserRepo(users ...*auth.User) *memUserRepo {
	m := make(map[id.ID]*auth.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &memUserRepo{users: m}
}

func (r *memUserRepo) get(userID id.ID) (*auth.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

func (r *memUserRepo) Create(ctx context.Context, user *auth.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.get(userID)
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username, accountType string) (*auth.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Type == accountType {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *memUserRepo) FindByRefreshFingerprint(ctx context.Context, fp string) (*auth.User, error) {
	return nil, apperror.NewNotFound("user", "fingerprint")
}

func (r *memUserRepo) SetRefreshFingerprint(ctx context.Context, userID id.ID, fp string) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.RefreshFP = &fp
	return nil
}

func (r *memUserRepo) RotateRefreshFingerprint(ctx context.Context, userID id.ID, oldFP, newFP string) (bool, error) {
	return false, nil
}

func (r *memUserRepo) ClearRefreshFingerprint(ctx context.Context, userID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.RefreshFP = nil
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, userID id.ID, hash string) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (r *memUserRepo) UpdateStatus(ctx context.Context, userID id.ID, status string) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.Status = status
	return nil
}

func (r *memUserRepo) UpdateRole(ctx context.Context, userID, roleID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.RoleID = roleID
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *auth.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, userID id.ID) error {
	if _, ok := r.users[userID]; !ok {
		return apperror.NewNotFound("user", userID.String())
	}
	delete(r.users, userID)
	return nil
}

func (r *memUserRepo) List(ctx context.Context, f auth.UserFilter) ([]auth.User, int64, error) {
	var out []auth.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username, accountType string) (bool, error) {
	_, err := r.FindByUsername(ctx, username, accountType)
	return err == nil, nil
}

func (r *memUserRepo) ResetAllToActive(ctx context.Context) (int64, error) {
	var n int64
	for _, u := range r.users {
		if !u.DeletionMark && u.Status != auth.StatusActive {
			u.Status = auth.StatusActive
			n++
		}
	}
	return n, nil
}

func (r *memUserRepo) AddFavorite(ctx context.Context, userID, songID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.FavoriteSongIDs = append(u.FavoriteSongIDs, songID)
	return nil
}

func (r *memUserRepo) RemoveFavorite(ctx context.Context, userID, songID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	out := u.FavoriteSongIDs[:0]
	for _, sid := range u.FavoriteSongIDs {
		if sid != songID {
			out = append(out, sid)
		}
	}
	u.FavoriteSongIDs = out
	return nil
}

func (r *memUserRepo) ListFavorites(ctx context.Context, userID id.ID) ([]id.ID, error) {
	u, err := r.get(userID)
	if err != nil {
		return nil, err
	}
	return u.FavoriteSongIDs, nil
}

func (r *memUserRepo) AttachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	for _, pid := range u.PlaylistIDs {
		if pid == playlistID {
			return nil
		}
	}
	u.PlaylistIDs = append(u.PlaylistIDs, playlistID)
	return nil
}

func (r *memUserRepo) DetachPlaylist(ctx context.Context, userID, playlistID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	out := u.PlaylistIDs[:0]
	for _, pid := range u.PlaylistIDs {
		if pid != playlistID {
			out = append(out, pid)
		}
	}
	u.PlaylistIDs = out
	return nil
}

func (r *memUserRepo) ListPlaylists(ctx context.Context, userID id.ID) ([]id.ID, error) {
	u, err := r.get(userID)
	if err != nil {
		return nil, err
	}
	return u.PlaylistIDs, nil
}

func (r *memUserRepo) DetachAllPlaylists(ctx context.Context, userID id.ID) error {
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.PlaylistIDs = nil
	return nil
}

type fakeRoleRegistry struct {
	existing map[id.ID]bool
	byName   map[string]id.ID
}

func (f *fakeRoleRegistry) RoleExists(ctx context.Context, roleID id.ID) (bool, error) {
	return f.existing[roleID], nil
}

func (f *fakeRoleRegistry) FindRoleByName(ctx context.Context, name string) (*access.Role, error) {
	roleID, ok := f.byName[name]
	if !ok {
		return nil, apperror.NewNotFound("role", name)
	}
	return &access.Role{ID: roleID, Name: name}, nil
}

func (f *fakeRoleRegistry) FindWithPermissions(ctx context.Context, roleID id.ID) (*access.Role, error) {
	if !f.existing[roleID] {
		return nil, apperror.NewNotFound("role", roleID.String())
	}
	return &access.Role{ID: roleID, Name: "role"}, nil
}

type fakeSingerRegistry struct {
	existing map[id.ID]bool
	cleared  []id.ID
}

func (f *fakeSingerRegistry) Exists(ctx context.Context, singerID id.ID) (bool, error) {
	return f.existing[singerID], nil
}

func (f *fakeSingerRegistry) ClearManager(ctx context.Context, singerID id.ID) error {
	f.cleared = append(f.cleared, singerID)
	return nil
}

type fakeSongRegistry struct {
	existing map[id.ID]bool
	likes    map[id.ID]int
}

func (f *fakeSongRegistry) Exists(ctx context.Context, songID id.ID) (bool, error) {
	return f.existing[songID], nil
}

func (f *fakeSongRegistry) AdjustLikeCount(ctx context.Context, songID id.ID, delta int) error {
	if f.likes == nil {
		f.likes = make(map[id.ID]int)
	}
	f.likes[songID] += delta
	return nil
}

type fakePlaylistRegistry struct {
	existing map[id.ID]bool
}

func (f *fakePlaylistRegistry) Exists(ctx context.Context, playlistID id.ID) (bool, error) {
	return f.existing[playlistID], nil
}

type fixture struct {
	svc     *Service
	repo    *memUserRepo
	roles   *fakeRoleRegistry
	singers *fakeSingerRegistry
	songs   *fakeSongRegistry
	lists   *fakePlaylistRegistry
}

func newFixture(users ...*auth.User) *fixture {
	f := &fixture{
		repo:    newMemUserRepo(users...),
		roles:   &fakeRoleRegistry{existing: make(map[id.ID]bool), byName: make(map[string]id.ID)},
		singers: &fakeSingerRegistry{existing: make(map[id.ID]bool)},
		songs:   &fakeSongRegistry{existing: make(map[id.ID]bool)},
		lists:   &fakePlaylistRegistry{existing: make(map[id.ID]bool)},
	}
	f.svc = NewService(f.repo, f.roles, f.singers, f.songs, f.lists, nil, nopTxManager{})
	return f
}

func seedUser(t *testing.T) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := auth.NewUser("alice", auth.TypeListener, string(hash), id.New())
	u.Email = "alice@example.com"
	return u
}

func TestCreate_ValidatesRoleEagerly(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateUserInput{
		Username: "bob",
		Password: "secret123",
		RoleID:   id.New(),
	})
	if !apperror.HasCode(err, apperror.CodeInvalidReference) {
		t.Fatalf("expected InvalidReference, got %v", err)
	}
	if len(f.repo.users) != 0 {
		t.Error("expected no user to be persisted")
	}
}

func TestRegister_ForcesListenerRole(t *testing.T) {
	f := newFixture()
	listenerRole := id.New()
	f.roles.existing[listenerRole] = true
	f.roles.byName[ListenerRoleName] = listenerRole

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Type != auth.TypeListener {
		t.Errorf("expected listener type, got %q", user.Type)
	}
	if user.RoleID != listenerRole {
		t.Errorf("expected listener role %s, got %s", listenerRole, user.RoleID)
	}
}

func TestRegister_FailsWithoutListenerRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Password: "secret123",
	})
	if !apperror.HasCode(err, apperror.CodeNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestCreate_UsernameUniquePerType(t *testing.T) {
	existing := seedUser(t)
	f := newFixture(existing)
	roleID := id.New()
	f.roles.existing[roleID] = true
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateUserInput{
		Username: "alice",
		Password: "secret123",
		Type:     auth.TypeListener,
		RoleID:   roleID,
	})
	if !apperror.HasCode(err, apperror.CodeDuplicate) {
		t.Fatalf("expected Duplicate, got %v", err)
	}

	// Same login name under a different account type is allowed.
	if _, err := f.svc.Create(ctx, CreateUserInput{
		Username: "alice",
		Password: "secret123",
		Type:     auth.TypeAdmin,
		RoleID:   roleID,
	}); err != nil {
		t.Fatalf("expected admin alice to be created: %v", err)
	}
}

func TestFavorites_SetSemantics(t *testing.T) {
	user := seedUser(t)
	f := newFixture(user)
	songID := id.New()
	f.songs.existing[songID] = true
	ctx := context.Background()

	if err := f.svc.AddFavorite(ctx, user.ID, songID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if f.songs.likes[songID] != 1 {
		t.Errorf("expected like count 1, got %d", f.songs.likes[songID])
	}

	// Duplicates are rejected, the counter stays.
	err := f.svc.AddFavorite(ctx, user.ID, songID)
	if !apperror.HasCode(err, apperror.CodeValidation) {
		t.Fatalf("expected validation error on duplicate, got %v", err)
	}
	if f.songs.likes[songID] != 1 {
		t.Errorf("duplicate add moved the counter: %d", f.songs.likes[songID])
	}

	if err := f.svc.RemoveFavorite(ctx, user.ID, songID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.songs.likes[songID] != 0 {
		t.Errorf("expected like count 0, got %d", f.songs.likes[songID])
	}

	// Removing again is a no-op and does not touch the counter.
	if err := f.svc.RemoveFavorite(ctx, user.ID, songID); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if f.songs.likes[songID] != 0 {
		t.Errorf("no-op remove moved the counter: %d", f.songs.likes[songID])
	}
}

func TestLinkSinger_ImmutableOnceSet(t *testing.T) {
	user := seedUser(t)
	f := newFixture(user)
	first, second := id.New(), id.New()
	f.singers.existing[first] = true
	f.singers.existing[second] = true
	ctx := context.Background()

	if err := f.svc.LinkSinger(ctx, user.ID, first); err != nil {
		t.Fatalf("link: %v", err)
	}

	err := f.svc.LinkSinger(ctx, user.ID, second)
	if !apperror.HasCode(err, apperror.CodeConflict) {
		t.Fatalf("expected Conflict on relink, got %v", err)
	}

	// Unlink then relink is the only way to change the reference.
	if err := f.svc.UnlinkSinger(ctx, user.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if len(f.singers.cleared) != 1 || f.singers.cleared[0] != first {
		t.Error("expected the back-reference to be cleared on unlink")
	}
	if err := f.svc.LinkSinger(ctx, user.ID, second); err != nil {
		t.Fatalf("relink after unlink: %v", err)
	}
}

func TestPlaylists_AttachOrderPreserved(t *testing.T) {
	user := seedUser(t)
	f := newFixture(user)
	ctx := context.Background()

	first, second, third := id.New(), id.New(), id.New()
	for _, pid := range []id.ID{first, second, third} {
		f.lists.existing[pid] = true
		if err := f.svc.AttachPlaylist(ctx, user.ID, pid); err != nil {
			t.Fatalf("attach %s: %v", pid, err)
		}
	}

	// Re-attaching an already linked playlist keeps its original position.
	if err := f.svc.AttachPlaylist(ctx, user.ID, first); err != nil {
		t.Fatalf("re-attach: %v", err)
	}

	if err := f.svc.DetachPlaylist(ctx, user.ID, second); err != nil {
		t.Fatalf("detach: %v", err)
	}

	got, err := f.repo.ListPlaylists(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []id.ID{first, third}
	if len(got) != len(want) {
		t.Fatalf("expected %d playlists, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDelete_CascadeSequence(t *testing.T) {
	user := seedUser(t)
	singerID := id.New()
	user.SingerID = &singerID
	playlistID := id.New()
	user.PlaylistIDs = []id.ID{playlistID}

	f := newFixture(user)
	ctx := context.Background()

	if err := f.svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(f.singers.cleared) != 1 || f.singers.cleared[0] != singerID {
		t.Error("expected singer back-reference cleared")
	}
	if _, ok := f.repo.users[user.ID]; ok {
		t.Error("expected user record to be gone")
	}
}

func TestResetAllToActive_ReturnsAffectedCount(t *testing.T) {
	active := seedUser(t)
	inactive := seedUser(t)
	inactive.Username = "bob"
	inactive.Status = auth.StatusInactive
	deleted := seedUser(t)
	deleted.Username = "carol"
	deleted.Status = auth.StatusInactive
	deleted.DeletionMark = true

	f := newFixture(active, inactive, deleted)

	affected, err := f.svc.ResetAllToActive(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if affected != 1 {
		t.Errorf("expected 1 affected row, got %d", affected)
	}
	if inactive.Status != auth.StatusActive {
		t.Error("expected inactive account to be reactivated")
	}
	if deleted.Status == auth.StatusActive {
		t.Error("soft-deleted account must not be touched")
	}
}
