package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/catalogs/song"
	"melodia/internal/infrastructure/http/v1/dto"
)

// SongsHandler exposes the song catalog. Browsing goes through the generic
// catalog handler; publishing and mutation are owner-scoped and resolve the
// singer from the authenticated account.
type SongsHandler struct {
	*CatalogHandler[*song.Song, dto.SongRequest, dto.SongRequest]
	service *song.Service
}

// NewSongsHandler creates a new songs handler.
func NewSongsHandler(base *BaseHandler, service *song.Service) *SongsHandler {
	return &SongsHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*song.Song, dto.SongRequest, dto.SongRequest]{
			Service:    service.CatalogService,
			EntityName: "song",
			MapCreateDTO: func(req dto.SongRequest) *song.Song {
				return song.New(req.Name, req.Slug, id.Nil())
			},
			MapUpdateDTO: func(req dto.SongRequest, existing *song.Song) *song.Song {
				existing.Name = req.Name
				if req.Slug != "" {
					existing.Slug = req.Slug
				}
				existing.AudioURL = req.AudioURL
				existing.CoverURL = req.CoverURL
				return existing
			},
			MapToDTO: func(s *song.Song) any { return dto.FromSong(s) },
		}),
		service: service,
	}
}

func (h *SongsHandler) singerFromContext(c *gin.Context) (id.ID, bool) {
	singerID := h.GetSingerID(c)
	if id.IsNil(singerID) {
		h.Error(c, apperror.NewForbidden("account is not linked to a singer"))
		return id.Nil(), false
	}
	return singerID, true
}

func (h *SongsHandler) createInput(req dto.SongRequest) (song.CreateInput, error) {
	in := song.CreateInput{
		Name:     req.Name,
		Slug:     req.Slug,
		AudioURL: req.AudioURL,
		CoverURL: req.CoverURL,
	}
	if req.TopicID != "" {
		topicID, err := id.Parse(req.TopicID)
		if err != nil {
			return in, apperror.NewMalformedID(req.TopicID)
		}
		in.TopicID = &topicID
	}
	return in, nil
}

// Publish handles POST /songs - the linked singer publishes a new track.
func (h *SongsHandler) Publish(c *gin.Context) {
	singerID, ok := h.singerFromContext(c)
	if !ok {
		return
	}

	var req dto.SongRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := h.createInput(req)
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Publish(c.Request.Context(), singerID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromSong(created))
}

// UpdateOwned handles PUT /songs/:id - the owning singer updates a track.
func (h *SongsHandler) UpdateOwned(c *gin.Context) {
	singerID, ok := h.singerFromContext(c)
	if !ok {
		return
	}
	songID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SongRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := h.createInput(req)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.UpdateOwned(c.Request.Context(), singerID, songID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSong(updated))
}

// DeleteOwned handles DELETE /songs/:id - the owning singer removes a track.
func (h *SongsHandler) DeleteOwned(c *gin.Context) {
	singerID, ok := h.singerFromContext(c)
	if !ok {
		return
	}
	songID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteOwned(c.Request.Context(), singerID, songID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Listen handles POST /songs/:id/listen - bumps the listen counter.
func (h *SongsHandler) Listen(c *gin.Context) {
	songID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Listen(c.Request.Context(), songID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Like handles POST /songs/:id/like
func (h *SongsHandler) Like(c *gin.Context) {
	h.adjustLike(c, 1)
}

// Unlike handles DELETE /songs/:id/like
func (h *SongsHandler) Unlike(c *gin.Context) {
	h.adjustLike(c, -1)
}

func (h *SongsHandler) adjustLike(c *gin.Context, delta int) {
	songID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.AdjustLikeCount(c.Request.Context(), songID, delta); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// ListBySinger handles GET /singers/:id/songs - ordered by position.
func (h *SongsHandler) ListBySinger(c *gin.Context) {
	singerID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListBySinger(c.Request.Context(), singerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]*dto.SongResponse, len(items))
	for i, s := range items {
		resp[i] = dto.FromSong(s)
	}
	h.OK(c, gin.H{"items": resp})
}

// NormalizePositions handles POST /admin/singers/:id/songs/normalize - rewrites
// track positions to a dense sequence.
func (h *SongsHandler) NormalizePositions(c *gin.Context) {
	singerID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	affected, err := h.service.NormalizePositions(c.Request.Context(), singerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AffectedResponse{Affected: affected})
}
