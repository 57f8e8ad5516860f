// Package topic is the topic catalog, plain CRUD over the generic service.
package topic

import (
	"context"

	"melodia/internal/core/entity"
	"melodia/internal/core/tx"
	"melodia/internal/domain"
)

// Topic groups songs by theme.
type Topic struct {
	entity.Catalog

	Description string `db:"description" json:"description,omitempty"`
}

// New creates a topic.
func New(name, slug string) *Topic {
	return &Topic{Catalog: entity.NewCatalog(name, slug)}
}

// Service is the topic catalog service.
type Service struct {
	*domain.CatalogService[*Topic]
}

// NewService creates the topic service.
func NewService(repo domain.CatalogRepository[*Topic], txManager tx.Manager) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Topic]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "topic",
		}),
	}
	normalize := func(ctx context.Context, t *Topic) error {
		t.Slug = entity.NormalizeSlug(t.Slug, t.Name)
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, normalize)
	s.Hooks().On(domain.BeforeUpdate, normalize)
	return s
}
