package singer

import (
	"context"
	"fmt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/entity"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/internal/domain"
)

// Repository extends the generic catalog contract with manager bookkeeping.
type Repository interface {
	domain.CatalogRepository[*Singer]

	// SetManager stores the managing user, nil clears the back-reference.
	SetManager(ctx context.Context, singerID id.ID, userID *id.ID) error
}

// Service implements the singer catalog.
type Service struct {
	*domain.CatalogService[*Singer]

	repo      Repository
	txManager tx.Manager
}

// NewService creates the singer service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Singer]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "singer",
		}),
		repo:      repo,
		txManager: txManager,
	}
	normalize := func(ctx context.Context, artist *Singer) error {
		artist.Slug = entity.NormalizeSlug(artist.Slug, artist.Name)
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, normalize)
	s.Hooks().On(domain.BeforeUpdate, normalize)
	return s
}

// SetStatus toggles the singer's visibility.
func (s *Service) SetStatus(ctx context.Context, singerID id.ID, status string) error {
	if status != StatusActive && status != StatusInactive {
		return apperror.NewValidation("unknown status").WithDetail("field", "status")
	}
	artist, err := s.GetByID(ctx, singerID)
	if err != nil {
		return err
	}
	artist.Status = status
	return s.Update(ctx, artist)
}

// SetManager links the managing user account.
func (s *Service) SetManager(ctx context.Context, singerID, userID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetManager(ctx, singerID, &userID); err != nil {
			return fmt.Errorf("set manager: %w", err)
		}
		return nil
	})
}

// ClearManager removes the back-reference; called by the users service when
// an account unlinks or is deleted.
func (s *Service) ClearManager(ctx context.Context, singerID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetManager(ctx, singerID, nil); err != nil {
			return fmt.Errorf("clear manager: %w", err)
		}
		return nil
	})
}
