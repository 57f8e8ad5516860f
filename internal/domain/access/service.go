package access

import (
	"context"
	"fmt"
	"strings"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/pkg/logger"
)

// AuditRecorder records administrative registry mutations.
type AuditRecorder interface {
	Record(ctx context.Context, action, entity string, entityID string, payload any) error
}

// Service implements the role and permission registries. Role writes validate
// every permission reference eagerly, so a role can never be persisted with a
// reference that was already dangling at write time.
type Service struct {
	roles     RoleRepository
	perms     PermissionRepository
	audit     AuditRecorder
	txManager tx.Manager
}

// NewService creates a new access service. audit may be nil.
func NewService(roles RoleRepository, perms PermissionRepository, audit AuditRecorder, txManager tx.Manager) *Service {
	return &Service{
		roles:     roles,
		perms:     perms,
		audit:     audit,
		txManager: txManager,
	}
}

// --- Permissions ---

// CreatePermission normalizes the path and stores the permission.
func (s *Service) CreatePermission(ctx context.Context, name, method, path string) (*Permission, error) {
	perm := NewPermission(name, method, path)
	if err := perm.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.perms.Create(ctx, perm)
	})
	if err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}
	s.record(ctx, "permission.create", "permission", perm.ID, perm)
	return perm, nil
}

// UpdatePermission re-normalizes the path on every update.
func (s *Service) UpdatePermission(ctx context.Context, permID id.ID, name, method, path string) (*Permission, error) {
	perm, err := s.perms.GetByID(ctx, permID)
	if err != nil {
		return nil, s.notFoundErr(err, "permission", permID)
	}

	perm.Name = name
	perm.Method = strings.ToUpper(method)
	perm.Path = NormalizePath(path)
	if err := perm.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.perms.Update(ctx, perm)
	})
	if err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}
	s.record(ctx, "permission.update", "permission", perm.ID, perm)
	return perm, nil
}

// GetPermission returns one permission by id.
func (s *Service) GetPermission(ctx context.Context, permID id.ID) (*Permission, error) {
	perm, err := s.perms.GetByID(ctx, permID)
	if err != nil {
		return nil, s.notFoundErr(err, "permission", permID)
	}
	return perm, nil
}

// ListPermissions forwards the query options as-is.
func (s *Service) ListPermissions(ctx context.Context, opts ListOptions) ([]Permission, int64, error) {
	return s.perms.List(ctx, opts)
}

// DeletePermission removes one record. Roles still holding the reference keep
// it; dangling references are skipped when a role is expanded.
func (s *Service) DeletePermission(ctx context.Context, permID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.perms.Delete(ctx, permID)
	})
	if err != nil {
		return s.notFoundErr(err, "permission", permID)
	}
	s.record(ctx, "permission.delete", "permission", permID, nil)
	return nil
}

// DeleteAllPermissions clears the registry and returns the removed count.
func (s *Service) DeleteAllPermissions(ctx context.Context) (int64, error) {
	var removed int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.perms.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete all permissions: %w", err)
	}
	logger.Warn(ctx, "permission registry cleared", "removed", removed)
	s.record(ctx, "permission.delete_all", "permission", id.Nil(), map[string]int64{"removed": removed})
	return removed, nil
}

// PermissionExists is the existence check other registries validate against.
func (s *Service) PermissionExists(ctx context.Context, permID id.ID) (bool, error) {
	return s.perms.ExistsByID(ctx, permID)
}

// --- Roles ---

// CreateRole validates every permission reference, then persists the role in
// one transaction. Any bad reference fails the whole operation with
// InvalidReference and nothing is written.
func (s *Service) CreateRole(ctx context.Context, name string, permissionIDs []id.ID) (*Role, error) {
	role := NewRole(name, permissionIDs)
	if err := role.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.validatePermissionRefs(ctx, permissionIDs); err != nil {
		return nil, err
	}
	if err := s.checkNameUnique(ctx, name, id.Nil()); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.roles.Create(ctx, role); err != nil {
			return fmt.Errorf("create role: %w", err)
		}
		return s.roles.ReplacePermissions(ctx, role.ID, permissionIDs)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "role.create", "role", role.ID, role)
	return role, nil
}

// UpdateRole applies the same eager validation as create, excluding the role
// itself from the name uniqueness check.
func (s *Service) UpdateRole(ctx context.Context, roleID id.ID, name string, permissionIDs []id.ID) (*Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, s.notFoundErr(err, "role", roleID)
	}

	role.Name = name
	role.PermissionIDs = permissionIDs
	if err := role.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.validatePermissionRefs(ctx, permissionIDs); err != nil {
		return nil, err
	}
	if err := s.checkNameUnique(ctx, name, roleID); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.roles.Update(ctx, role); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		return s.roles.ReplacePermissions(ctx, roleID, permissionIDs)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "role.update", "role", role.ID, role)
	return role, nil
}

// GetRole returns one role with its reference set, without expansion.
func (s *Service) GetRole(ctx context.Context, roleID id.ID) (*Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, s.notFoundErr(err, "role", roleID)
	}
	ids, err := s.roles.LoadPermissionIDs(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("load permission refs: %w", err)
	}
	role.PermissionIDs = ids
	return role, nil
}

// ListRoles forwards the query options as-is.
func (s *Service) ListRoles(ctx context.Context, opts ListOptions) ([]Role, int64, error) {
	return s.roles.List(ctx, opts)
}

// DeleteRole removes the role unconditionally. Reassigning users that still
// reference it is sequenced by the users service before calling this.
func (s *Service) DeleteRole(ctx context.Context, roleID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.roles.Delete(ctx, roleID)
	})
	if err != nil {
		return s.notFoundErr(err, "role", roleID)
	}
	s.record(ctx, "role.delete", "role", roleID, nil)
	return nil
}

// FindRoleByName resolves a role by its exact name. Used for well-known
// roles such as the one assigned on self-registration.
func (s *Service) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.roles.FindByName(ctx, name)
}

// RoleExists is the existence check the users service validates against.
func (s *Service) RoleExists(ctx context.Context, roleID id.ID) (bool, error) {
	return s.roles.ExistsByID(ctx, roleID)
}

// FindWithPermissions returns the role with full permission objects inlined.
// References to since-deleted permissions are skipped, not errors. This read
// path is what the authorization guard resolves against, so it always
// reflects live registry state.
func (s *Service) FindWithPermissions(ctx context.Context, roleID id.ID) (*Role, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	perms, err := s.perms.GetByIDs(ctx, role.PermissionIDs)
	if err != nil {
		return nil, fmt.Errorf("expand permissions: %w", err)
	}
	role.Permissions = perms
	return role, nil
}

// ListWithPermissions expands every listed role.
func (s *Service) ListWithPermissions(ctx context.Context, opts ListOptions) ([]Role, int64, error) {
	roles, total, err := s.roles.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	for i := range roles {
		ids, err := s.roles.LoadPermissionIDs(ctx, roles[i].ID)
		if err != nil {
			return nil, 0, fmt.Errorf("load permission refs: %w", err)
		}
		roles[i].PermissionIDs = ids
		perms, err := s.perms.GetByIDs(ctx, ids)
		if err != nil {
			return nil, 0, fmt.Errorf("expand permissions: %w", err)
		}
		roles[i].Permissions = perms
	}
	return roles, total, nil
}

// validatePermissionRefs checks every id independently against the permission
// registry. The first miss fails the operation.
func (s *Service) validatePermissionRefs(ctx context.Context, permissionIDs []id.ID) error {
	for _, pid := range permissionIDs {
		exists, err := s.perms.ExistsByID(ctx, pid)
		if err != nil {
			return fmt.Errorf("check permission %s: %w", pid, err)
		}
		if !exists {
			return apperror.NewInvalidReference("permission", pid.String())
		}
	}
	return nil
}

func (s *Service) checkNameUnique(ctx context.Context, name string, excludeID id.ID) error {
	taken, err := s.roles.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check role name: %w", err)
	}
	if taken {
		return apperror.NewDuplicate("role", "name", name)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, entity string, entityID id.ID, payload any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entity, entityID.String(), payload); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}

func (s *Service) notFoundErr(err error, entity string, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entity, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", entity)
}
