package dto

import (
	"time"

	"melodia/internal/core/id"
	"melodia/internal/domain/access"
)

// --- Request DTOs ---

// PermissionRequest creates or updates a permission record. The path is
// normalized server-side under the API root.
type PermissionRequest struct {
	Name   string `json:"name" binding:"required"`
	Method string `json:"method" binding:"required"`
	Path   string `json:"path"`
}

// RoleRequest creates or updates a role with its full permission reference set.
type RoleRequest struct {
	Name          string   `json:"name" binding:"required"`
	PermissionIDs []string `json:"permissionIds"`
}

// ParsePermissionIDs converts the string ids, reporting the first bad one.
func (r *RoleRequest) ParsePermissionIDs() ([]id.ID, string) {
	ids := make([]id.ID, 0, len(r.PermissionIDs))
	for _, raw := range r.PermissionIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			return nil, raw
		}
		ids = append(ids, parsed)
	}
	return ids, ""
}

// --- Response DTOs ---

// PermissionResponse represents permission in API response.
type PermissionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int       `json:"version"`
}

// FromPermission creates response from domain permission.
func FromPermission(p *access.Permission) *PermissionResponse {
	return &PermissionResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Method:    p.Method,
		Path:      p.Path,
		CreatedAt: p.CreatedAt,
		Version:   p.Version,
	}
}

// RoleResponse represents role in API response. Permissions are present only
// when the caller asked for expansion.
type RoleResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	PermissionIDs []string             `json:"permissionIds"`
	Permissions   []PermissionResponse `json:"permissions,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	Version       int                  `json:"version"`
}

// FromRole creates response from domain role.
func FromRole(r *access.Role) *RoleResponse {
	resp := &RoleResponse{
		ID:            r.ID.String(),
		Name:          r.Name,
		PermissionIDs: idStrings(r.PermissionIDs),
		CreatedAt:     r.CreatedAt,
		Version:       r.Version,
	}
	if resp.PermissionIDs == nil {
		resp.PermissionIDs = []string{}
	}
	for i := range r.Permissions {
		resp.Permissions = append(resp.Permissions, *FromPermission(&r.Permissions[i]))
	}
	return resp
}

func idStrings(ids []id.ID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}
