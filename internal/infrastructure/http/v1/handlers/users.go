package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/auth"
	"melodia/internal/domain/users"
	"melodia/internal/infrastructure/http/v1/dto"
)

// UsersHandler handles account management and profile endpoints.
type UsersHandler struct {
	*BaseHandler
	service *users.Service
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(base *BaseHandler, service *users.Service) *UsersHandler {
	return &UsersHandler{BaseHandler: base, service: service}
}

// Register handles POST /auth/register. Self-registered accounts are always
// listeners with the listener role; the request carries no role or type.
func (h *UsersHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), users.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Create handles POST /admin/users (administrative account creation).
func (h *UsersHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	roleID, err := id.Parse(req.RoleID)
	if err != nil {
		h.Error(c, apperror.NewMalformedID(req.RoleID))
		return
	}

	user, err := h.service.Create(c.Request.Context(), users.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Type:     req.Type,
		RoleID:   roleID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromUser(user))
}

// Me handles GET /users/me
func (h *UsersHandler) Me(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// UpdateMe handles PUT /users/me
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, users.UpdateProfileInput{
		Email:     req.Email,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// Get handles GET /admin/users/:id
func (h *UsersHandler) Get(c *gin.Context) {
	userID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// List handles GET /admin/users
func (h *UsersHandler) List(c *gin.Context) {
	filter := auth.UserFilter{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("roleId"); raw != "" {
		roleID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewMalformedID(raw))
			return
		}
		filter.RoleID = &roleID
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]*dto.AccountResponse, len(items))
	for i := range items {
		resp[i] = dto.FromUser(&items[i])
	}

	h.OK(c, dto.ListResponse{
		Items:      resp,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// SetStatus handles POST /admin/users/:id/status
func (h *UsersHandler) SetStatus(c *gin.Context) {
	userID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), userID, req.Status); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "status updated")
}

// ChangeRole handles POST /admin/users/:id/role
func (h *UsersHandler) ChangeRole(c *gin.Context) {
	userID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	roleID, err := id.Parse(req.RoleID)
	if err != nil {
		h.Error(c, apperror.NewMalformedID(req.RoleID))
		return
	}

	if err := h.service.ChangeRole(c.Request.Context(), userID, roleID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "role updated")
}

// LinkSinger handles POST /admin/users/:id/singer
func (h *UsersHandler) LinkSinger(c *gin.Context) {
	userID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.LinkSingerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	singerID, err := id.Parse(req.SingerID)
	if err != nil {
		h.Error(c, apperror.NewMalformedID(req.SingerID))
		return
	}

	if err := h.service.LinkSinger(c.Request.Context(), userID, singerID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "singer linked")
}

// UnlinkSinger handles DELETE /admin/users/:id/singer
func (h *UsersHandler) UnlinkSinger(c *gin.Context) {
	userID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.UnlinkSinger(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Delete handles DELETE /admin/users/:id
func (h *UsersHandler) Delete(c *gin.Context) {
	userID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ResetAllToActive handles POST /admin/users/reset-active
func (h *UsersHandler) ResetAllToActive(c *gin.Context) {
	affected, err := h.service.ResetAllToActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AffectedResponse{Affected: affected})
}

// AddFavorite handles POST /users/me/favorites/:songId
func (h *UsersHandler) AddFavorite(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	songID, ok := h.ParseIDParam(c, "songId")
	if !ok {
		return
	}

	if err := h.service.AddFavorite(c.Request.Context(), userID, songID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "song added to favorites")
}

// RemoveFavorite handles DELETE /users/me/favorites/:songId
func (h *UsersHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	songID, ok := h.ParseIDParam(c, "songId")
	if !ok {
		return
	}

	if err := h.service.RemoveFavorite(c.Request.Context(), userID, songID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ListFavorites handles GET /users/me/favorites
func (h *UsersHandler) ListFavorites(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}

	ids, err := h.service.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	h.OK(c, gin.H{"songIds": out})
}

// AttachPlaylist handles POST /users/me/playlists/:playlistId
func (h *UsersHandler) AttachPlaylist(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	playlistID, ok := h.ParseIDParam(c, "playlistId")
	if !ok {
		return
	}

	if err := h.service.AttachPlaylist(c.Request.Context(), userID, playlistID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "playlist attached")
}

// DetachPlaylist handles DELETE /users/me/playlists/:playlistId
func (h *UsersHandler) DetachPlaylist(c *gin.Context) {
	userID, ok := h.GetUserID(c)
	if !ok {
		return
	}
	playlistID, ok := h.ParseIDParam(c, "playlistId")
	if !ok {
		return
	}

	if err := h.service.DetachPlaylist(c.Request.Context(), userID, playlistID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
