package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/catalogs/playlist"
	"melodia/internal/infrastructure/http/v1/dto"
)

// PlaylistsHandler exposes the playlist catalog. Creation and song-list
// replacement validate every song reference before touching storage.
type PlaylistsHandler struct {
	*CatalogHandler[*playlist.Playlist, dto.PlaylistRequest, dto.PlaylistRequest]
	service *playlist.Service
}

// NewPlaylistsHandler creates a new playlists handler.
func NewPlaylistsHandler(base *BaseHandler, service *playlist.Service) *PlaylistsHandler {
	return &PlaylistsHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*playlist.Playlist, dto.PlaylistRequest, dto.PlaylistRequest]{
			Service:    service.CatalogService,
			EntityName: "playlist",
			MapCreateDTO: func(req dto.PlaylistRequest) *playlist.Playlist {
				p := playlist.New(req.Name, req.Slug, nil)
				p.CoverURL = req.CoverURL
				return p
			},
			MapUpdateDTO: func(req dto.PlaylistRequest, existing *playlist.Playlist) *playlist.Playlist {
				existing.Name = req.Name
				if req.Slug != "" {
					existing.Slug = req.Slug
				}
				existing.CoverURL = req.CoverURL
				return existing
			},
			MapToDTO: func(p *playlist.Playlist) any { return dto.FromPlaylist(p) },
		}),
		service: service,
	}
}

func parseSongIDs(raw []string) ([]id.ID, error) {
	ids := make([]id.ID, 0, len(raw))
	for _, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			return nil, apperror.NewMalformedID(s)
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}

// Create handles POST /playlists - creates the playlist together with its
// ordered song list, every reference checked up front.
func (h *PlaylistsHandler) Create(c *gin.Context) {
	var req dto.PlaylistRequest
	if !h.BindJSON(c, &req) {
		return
	}

	songIDs, err := parseSongIDs(req.SongIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	list := playlist.New(req.Name, req.Slug, songIDs)
	list.CoverURL = req.CoverURL

	if err := h.service.CreateWithSongs(c.Request.Context(), list); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromPlaylist(list))
}

// ReplaceSongs handles PUT /playlists/:id/songs
func (h *PlaylistsHandler) ReplaceSongs(c *gin.Context) {
	playlistID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		SongIDs []string `json:"songIds"`
	}
	if !h.BindJSON(c, &req) {
		return
	}

	songIDs, err := parseSongIDs(req.SongIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.ReplaceSongs(c.Request.Context(), playlistID, songIDs); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "song list updated")
}

// Get handles GET /playlists/:id - returns the playlist with its ordered
// song list loaded.
func (h *PlaylistsHandler) Get(c *gin.Context) {
	playlistID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetWithSongs(c.Request.Context(), playlistID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPlaylist(p))
}
