package handlers

import (
	"melodia/internal/domain/catalogs/topic"
	"melodia/internal/infrastructure/http/v1/dto"
)

// TopicsHandler exposes the topic catalog, plain CRUD.
type TopicsHandler struct {
	*CatalogHandler[*topic.Topic, dto.TopicRequest, dto.TopicRequest]
}

// NewTopicsHandler creates a new topics handler.
func NewTopicsHandler(base *BaseHandler, service *topic.Service) *TopicsHandler {
	return &TopicsHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*topic.Topic, dto.TopicRequest, dto.TopicRequest]{
			Service:    service.CatalogService,
			EntityName: "topic",
			MapCreateDTO: func(req dto.TopicRequest) *topic.Topic {
				t := topic.New(req.Name, req.Slug)
				t.Description = req.Description
				return t
			},
			MapUpdateDTO: func(req dto.TopicRequest, existing *topic.Topic) *topic.Topic {
				existing.Name = req.Name
				if req.Slug != "" {
					existing.Slug = req.Slug
				}
				existing.Description = req.Description
				return existing
			},
			MapToDTO: func(t *topic.Topic) any { return dto.FromTopic(t) },
		}),
	}
}
