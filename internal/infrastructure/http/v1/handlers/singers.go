package handlers

import (
	"github.com/gin-gonic/gin"

	"melodia/internal/domain/catalogs/singer"
	"melodia/internal/infrastructure/http/v1/dto"
)

// SingersHandler exposes the singer catalog.
type SingersHandler struct {
	*CatalogHandler[*singer.Singer, dto.SingerRequest, dto.SingerRequest]
	service *singer.Service
}

// NewSingersHandler creates a new singers handler.
func NewSingersHandler(base *BaseHandler, service *singer.Service) *SingersHandler {
	return &SingersHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*singer.Singer, dto.SingerRequest, dto.SingerRequest]{
			Service:    service.CatalogService,
			EntityName: "singer",
			MapCreateDTO: func(req dto.SingerRequest) *singer.Singer {
				s := singer.New(req.Name, req.Slug)
				s.Bio = req.Bio
				s.AvatarURL = req.AvatarURL
				return s
			},
			MapUpdateDTO: func(req dto.SingerRequest, existing *singer.Singer) *singer.Singer {
				existing.Name = req.Name
				if req.Slug != "" {
					existing.Slug = req.Slug
				}
				existing.Bio = req.Bio
				existing.AvatarURL = req.AvatarURL
				return existing
			},
			MapToDTO: func(s *singer.Singer) any { return dto.FromSinger(s) },
		}),
		service: service,
	}
}

// SetStatus handles POST /admin/singers/:id/status
func (h *SingersHandler) SetStatus(c *gin.Context) {
	singerID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetStatus(c.Request.Context(), singerID, req.Status); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "status updated")
}
