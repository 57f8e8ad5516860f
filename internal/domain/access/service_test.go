package access

import (
	"context"
	"testing"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePermRepo struct {
	perms map[id.ID]*Permission
}

func newFakePermRepo(perms ...*Permission) *fakePermRepo {
	m := make(map[id.ID]*Permission)
	for _, p := range perms {
		m[p.ID] = p
	}
	return &fakePermRepo{perms: m}
}

func (r *fakePermRepo) Create(ctx context.Context, perm *Permission) error {
	r.perms[perm.ID] = perm
	return nil
}

func (r *fakePermRepo) GetByID(ctx context.Context, permID id.ID) (*Permission, error) {
	p, ok := r.perms[permID]
	if !ok {
		return nil, apperror.NewNotFound("permission", permID.String())
	}
	return p, nil
}

func (r *fakePermRepo) Update(ctx context.Context, perm *Permission) error {
	r.perms[perm.ID] = perm
	return nil
}

func (r *fakePermRepo) Delete(ctx context.Context, permID id.ID) error {
	if _, ok := r.perms[permID]; !ok {
		return apperror.NewNotFound("permission", permID.String())
	}
	delete(r.perms, permID)
	return nil
}

func (r *fakePermRepo) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(r.perms))
	r.perms = make(map[id.ID]*Permission)
	return n, nil
}

func (r *fakePermRepo) List(ctx context.Context, opts ListOptions) ([]Permission, int64, error) {
	var out []Permission
	for _, p := range r.perms {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePermRepo) ExistsByID(ctx context.Context, permID id.ID) (bool, error) {
	_, ok := r.perms[permID]
	return ok, nil
}

func (r *fakePermRepo) GetByIDs(ctx context.Context, permIDs []id.ID) ([]Permission, error) {
	var out []Permission
	for _, pid := range permIDs {
		if p, ok := r.perms[pid]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeRoleRepo struct {
	roles map[id.ID]*Role
	refs  map[id.ID][]id.ID
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[id.ID]*Role), refs: make(map[id.ID][]id.ID)}
}

func (r *fakeRoleRepo) Create(ctx context.Context, role *Role) error {
	r.roles[role.ID] = role
	return nil
}

func (r *fakeRoleRepo) GetByID(ctx context.Context, roleID id.ID) (*Role, error) {
	role, ok := r.roles[roleID]
	if !ok {
		return nil, apperror.NewNotFound("role", roleID.String())
	}
	return role, nil
}

func (r *fakeRoleRepo) Update(ctx context.Context, role *Role) error {
	r.roles[role.ID] = role
	return nil
}

func (r *fakeRoleRepo) Delete(ctx context.Context, roleID id.ID) error {
	if _, ok := r.roles[roleID]; !ok {
		return apperror.NewNotFound("role", roleID.String())
	}
	delete(r.roles, roleID)
	delete(r.refs, roleID)
	return nil
}

func (r *fakeRoleRepo) List(ctx context.Context, opts ListOptions) ([]Role, int64, error) {
	var out []Role
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRoleRepo) FindByName(ctx context.Context, name string) (*Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, apperror.NewNotFound("role", name)
}

func (r *fakeRoleRepo) ExistsByID(ctx context.Context, roleID id.ID) (bool, error) {
	_, ok := r.roles[roleID]
	return ok, nil
}

func (r *fakeRoleRepo) ExistsByName(ctx context.Context, name string, excludeID id.ID) (bool, error) {
	for _, role := range r.roles {
		if role.Name == name && role.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRoleRepo) ReplacePermissions(ctx context.Context, roleID id.ID, permissionIDs []id.ID) error {
	r.refs[roleID] = append([]id.ID(nil), permissionIDs...)
	return nil
}

func (r *fakeRoleRepo) LoadPermissionIDs(ctx context.Context, roleID id.ID) ([]id.ID, error) {
	return r.refs[roleID], nil
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"songs", "/api/v1/songs"},
		{"/songs", "/api/v1/songs"},
		{"/api/v1/songs", "/api/v1/songs"},
		{" songs/all ", "/api/v1/songs/all"},
		{"", "/api/v1"},
	}
	for _, tc := range tests {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreatePermission_NormalizesPath(t *testing.T) {
	svc := NewService(newFakeRoleRepo(), newFakePermRepo(), nil, nopTxManager{})

	perm, err := svc.CreatePermission(context.Background(), "list songs", "get", "songs/all")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if perm.Path != "/api/v1/songs/all" {
		t.Errorf("expected normalized path, got %q", perm.Path)
	}
	if perm.Method != "GET" {
		t.Errorf("expected upper-cased method, got %q", perm.Method)
	}
}

func TestUpdatePermission_RenormalizesPath(t *testing.T) {
	perms := newFakePermRepo()
	svc := NewService(newFakeRoleRepo(), perms, nil, nopTxManager{})

	perm, err := svc.CreatePermission(context.Background(), "list", "GET", "songs")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdatePermission(context.Background(), perm.ID, "list", "GET", "singers")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Path != "/api/v1/singers" {
		t.Errorf("expected re-normalized path, got %q", updated.Path)
	}
}

func TestCreateRole_InvalidReferenceIsAtomic(t *testing.T) {
	valid := NewPermission("list songs", "GET", "songs")
	perms := newFakePermRepo(valid)
	roles := newFakeRoleRepo()
	svc := NewService(roles, perms, nil, nopTxManager{})

	_, err := svc.CreateRole(context.Background(), "editor", []id.ID{valid.ID, id.New()})
	if !apperror.HasCode(err, apperror.CodeInvalidReference) {
		t.Fatalf("expected InvalidReference, got %v", err)
	}
	if len(roles.roles) != 0 {
		t.Error("expected no role to be persisted after a failed reference check")
	}
}

func TestCreateRole_NameUniquenessCaseSensitive(t *testing.T) {
	roles := newFakeRoleRepo()
	svc := NewService(roles, newFakePermRepo(), nil, nopTxManager{})
	ctx := context.Background()

	if _, err := svc.CreateRole(ctx, "editor", nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateRole(ctx, "editor", nil); !apperror.HasCode(err, apperror.CodeDuplicate) {
		t.Fatalf("expected Duplicate for same name, got %v", err)
	}
	// Different case is a different name.
	if _, err := svc.CreateRole(ctx, "Editor", nil); err != nil {
		t.Fatalf("case-different name should pass: %v", err)
	}
}

func TestUpdateRole_ExcludesSelfFromNameCheck(t *testing.T) {
	valid := NewPermission("list songs", "GET", "songs")
	svc := NewService(newFakeRoleRepo(), newFakePermRepo(valid), nil, nopTxManager{})
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "editor", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Keeping the same name on update must not trip the uniqueness check.
	if _, err := svc.UpdateRole(ctx, role.ID, "editor", []id.ID{valid.ID}); err != nil {
		t.Fatalf("update keeping name: %v", err)
	}
}

func TestFindWithPermissions_SkipsDanglingRefs(t *testing.T) {
	perm := NewPermission("list songs", "GET", "songs")
	perms := newFakePermRepo(perm)
	roles := newFakeRoleRepo()
	svc := NewService(roles, perms, nil, nopTxManager{})
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "editor", []id.ID{perm.ID})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	// Deleting the permission leaves a dangling reference on the role.
	if err := svc.DeletePermission(ctx, perm.ID); err != nil {
		t.Fatalf("delete permission: %v", err)
	}

	expanded, err := svc.FindWithPermissions(ctx, role.ID)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(expanded.Permissions) != 0 {
		t.Errorf("expected dangling reference to be skipped, got %d permissions", len(expanded.Permissions))
	}
}

func TestRoleAllows(t *testing.T) {
	role := &Role{Permissions: []Permission{
		{Method: "GET", Path: "/api/v1/songs"},
		{Method: "POST", Path: "/api/v1/songs"},
	}}

	if !role.Allows("get", "/api/v1/songs") {
		t.Error("expected method match to be case-insensitive on input")
	}
	if role.Allows("DELETE", "/api/v1/songs") {
		t.Error("expected mismatch on verb to deny")
	}
	if role.Allows("GET", "/api/v1/singers") {
		t.Error("expected mismatch on path to deny")
	}
}
