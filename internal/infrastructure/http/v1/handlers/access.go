package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/domain/access"
	"melodia/internal/infrastructure/http/v1/dto"
)

// AccessHandler manages permission and role registries.
type AccessHandler struct {
	*BaseHandler
	service *access.Service
}

// NewAccessHandler creates a new access handler.
func NewAccessHandler(base *BaseHandler, service *access.Service) *AccessHandler {
	return &AccessHandler{BaseHandler: base, service: service}
}

func (h *AccessHandler) listOptions(c *gin.Context) access.ListOptions {
	return access.ListOptions{
		Search:  c.Query("search"),
		OrderBy: c.Query("orderBy"),
		Limit:   h.ParseIntQuery(c, "limit", 50),
		Offset:  h.ParseIntQuery(c, "offset", 0),
	}
}

// --- Permissions ---

// CreatePermission handles POST /admin/permissions
func (h *AccessHandler) CreatePermission(c *gin.Context) {
	var req dto.PermissionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	perm, err := h.service.CreatePermission(c.Request.Context(), req.Name, req.Method, req.Path)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromPermission(perm))
}

// GetPermission handles GET /admin/permissions/:id
func (h *AccessHandler) GetPermission(c *gin.Context) {
	permID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	perm, err := h.service.GetPermission(c.Request.Context(), permID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPermission(perm))
}

// UpdatePermission handles PUT /admin/permissions/:id
func (h *AccessHandler) UpdatePermission(c *gin.Context) {
	permID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.PermissionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	perm, err := h.service.UpdatePermission(c.Request.Context(), permID, req.Name, req.Method, req.Path)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPermission(perm))
}

// ListPermissions handles GET /admin/permissions
func (h *AccessHandler) ListPermissions(c *gin.Context) {
	opts := h.listOptions(c)

	items, total, err := h.service.ListPermissions(c.Request.Context(), opts)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]*dto.PermissionResponse, len(items))
	for i := range items {
		resp[i] = dto.FromPermission(&items[i])
	}

	h.OK(c, dto.ListResponse{
		Items:      resp,
		TotalCount: total,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
}

// DeletePermission handles DELETE /admin/permissions/:id
func (h *AccessHandler) DeletePermission(c *gin.Context) {
	permID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeletePermission(c.Request.Context(), permID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteAllPermissions handles DELETE /admin/permissions
func (h *AccessHandler) DeleteAllPermissions(c *gin.Context) {
	affected, err := h.service.DeleteAllPermissions(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AffectedResponse{Affected: affected})
}

// --- Roles ---

// CreateRole handles POST /admin/roles
func (h *AccessHandler) CreateRole(c *gin.Context) {
	var req dto.RoleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	permIDs, badRaw := req.ParsePermissionIDs()
	if badRaw != "" {
		h.Error(c, apperror.NewMalformedID(badRaw))
		return
	}

	role, err := h.service.CreateRole(c.Request.Context(), req.Name, permIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromRole(role))
}

// GetRole handles GET /admin/roles/:id. Pass expand=permissions to inline
// the resolved permission records.
func (h *AccessHandler) GetRole(c *gin.Context) {
	roleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	var (
		role *access.Role
		err  error
	)
	if c.Query("expand") == "permissions" {
		role, err = h.service.FindWithPermissions(ctx, roleID)
	} else {
		role, err = h.service.GetRole(ctx, roleID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRole(role))
}

// UpdateRole handles PUT /admin/roles/:id
func (h *AccessHandler) UpdateRole(c *gin.Context) {
	roleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.RoleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	permIDs, badRaw := req.ParsePermissionIDs()
	if badRaw != "" {
		h.Error(c, apperror.NewMalformedID(badRaw))
		return
	}

	role, err := h.service.UpdateRole(c.Request.Context(), roleID, req.Name, permIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRole(role))
}

// ListRoles handles GET /admin/roles. Pass expand=permissions to inline the
// resolved permission records per role.
func (h *AccessHandler) ListRoles(c *gin.Context) {
	opts := h.listOptions(c)
	ctx := c.Request.Context()

	var (
		items []access.Role
		total int64
		err   error
	)
	if c.Query("expand") == "permissions" {
		items, total, err = h.service.ListWithPermissions(ctx, opts)
	} else {
		items, total, err = h.service.ListRoles(ctx, opts)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]*dto.RoleResponse, len(items))
	for i := range items {
		resp[i] = dto.FromRole(&items[i])
	}

	h.OK(c, dto.ListResponse{
		Items:      resp,
		TotalCount: total,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
}

// DeleteRole handles DELETE /admin/roles/:id
func (h *AccessHandler) DeleteRole(c *gin.Context) {
	roleID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRole(c.Request.Context(), roleID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
