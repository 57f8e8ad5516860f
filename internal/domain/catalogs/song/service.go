package song

import (
	"context"
	"fmt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/entity"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/internal/domain"
	"melodia/pkg/logger"
)

// Repository extends the generic catalog contract with song-specific reads
// and counter updates.
type Repository interface {
	domain.CatalogRepository[*Song]

	// MaxPosition returns the highest position among the singer's songs,
	// zero when the singer has none.
	MaxPosition(ctx context.Context, singerID id.ID) (int, error)

	// ListBySinger returns the singer's songs ordered by position.
	ListBySinger(ctx context.Context, singerID id.ID) ([]*Song, error)

	// IncrementListen bumps the listen counter by one.
	IncrementListen(ctx context.Context, songID id.ID) error

	// AdjustLikeCount moves the like counter by delta, clamped at zero.
	AdjustLikeCount(ctx context.Context, songID id.ID, delta int) error

	// RenumberBySinger rewrites positions to a dense 1..n sequence in the
	// current position order. Returns the number of rows touched.
	RenumberBySinger(ctx context.Context, singerID id.ID) (int64, error)
}

// TopicRegistry validates topic references on create and update.
type TopicRegistry interface {
	Exists(ctx context.Context, topicID id.ID) (bool, error)
}

// SingerRegistry validates the owning singer on create.
type SingerRegistry interface {
	Exists(ctx context.Context, singerID id.ID) (bool, error)
}

// CreateInput carries the fields a singer supplies when publishing a track.
type CreateInput struct {
	Name     string
	Slug     string
	TopicID  *id.ID
	AudioURL string
	CoverURL string
}

// Service implements song catalog operations. Mutations are owner-scoped:
// only the owning singer may update or delete a track.
type Service struct {
	*domain.CatalogService[*Song]

	repo      Repository
	topics    TopicRegistry
	singers   SingerRegistry
	txManager tx.Manager
}

// NewService creates the song service.
func NewService(repo Repository, topics TopicRegistry, singers SingerRegistry, txManager tx.Manager) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Song]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "song",
		}),
		repo:      repo,
		topics:    topics,
		singers:   singers,
		txManager: txManager,
	}
	normalize := func(ctx context.Context, track *Song) error {
		track.Slug = entity.NormalizeSlug(track.Slug, track.Name)
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, normalize)
	s.Hooks().On(domain.BeforeUpdate, normalize)
	return s
}

// Publish creates a song for the singer, appended at position max+1.
// References are validated eagerly before anything is written.
func (s *Service) Publish(ctx context.Context, singerID id.ID, in CreateInput) (*Song, error) {
	if id.IsNil(singerID) {
		return nil, apperror.NewForbidden("only singers can publish songs")
	}

	ok, err := s.singers.Exists(ctx, singerID)
	if err != nil {
		return nil, fmt.Errorf("check singer: %w", err)
	}
	if !ok {
		return nil, apperror.NewInvalidReference("singer", singerID.String())
	}
	if in.TopicID != nil {
		ok, err := s.topics.Exists(ctx, *in.TopicID)
		if err != nil {
			return nil, fmt.Errorf("check topic: %w", err)
		}
		if !ok {
			return nil, apperror.NewInvalidReference("topic", in.TopicID.String())
		}
	}

	track := New(in.Name, in.Slug, singerID)
	track.TopicID = in.TopicID
	track.AudioURL = in.AudioURL
	track.CoverURL = in.CoverURL

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		maxPos, err := s.repo.MaxPosition(ctx, singerID)
		if err != nil {
			return fmt.Errorf("max position: %w", err)
		}
		track.Position = maxPos + 1
		return s.CatalogService.Create(ctx, track)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "song published", "song_id", track.ID, "singer_id", singerID, "position", track.Position)
	return track, nil
}

// UpdateOwned applies changes only when the caller's singer owns the track.
func (s *Service) UpdateOwned(ctx context.Context, singerID, songID id.ID, in CreateInput) (*Song, error) {
	track, err := s.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if !track.OwnedBy(singerID) {
		return nil, apperror.NewForbidden("song belongs to another singer")
	}
	if in.TopicID != nil {
		ok, err := s.topics.Exists(ctx, *in.TopicID)
		if err != nil {
			return nil, fmt.Errorf("check topic: %w", err)
		}
		if !ok {
			return nil, apperror.NewInvalidReference("topic", in.TopicID.String())
		}
	}

	track.Name = in.Name
	track.Slug = in.Slug
	track.TopicID = in.TopicID
	if in.AudioURL != "" {
		track.AudioURL = in.AudioURL
	}
	if in.CoverURL != "" {
		track.CoverURL = in.CoverURL
	}

	if err := s.CatalogService.Update(ctx, track); err != nil {
		return nil, err
	}
	return track, nil
}

// DeleteOwned soft-deletes the track when the caller's singer owns it.
func (s *Service) DeleteOwned(ctx context.Context, singerID, songID id.ID) error {
	track, err := s.GetByID(ctx, songID)
	if err != nil {
		return err
	}
	if !track.OwnedBy(singerID) {
		return apperror.NewForbidden("song belongs to another singer")
	}
	return s.CatalogService.Delete(ctx, songID)
}

// ListBySinger returns the singer's tracks in position order.
func (s *Service) ListBySinger(ctx context.Context, singerID id.ID) ([]*Song, error) {
	return s.repo.ListBySinger(ctx, singerID)
}

// Listen records one playback.
func (s *Service) Listen(ctx context.Context, songID id.ID) error {
	if err := s.repo.IncrementListen(ctx, songID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("song", songID.String())
		}
		return fmt.Errorf("increment listen: %w", err)
	}
	return nil
}

// AdjustLikeCount moves the like counter; called by the users service when
// favorites change.
func (s *Service) AdjustLikeCount(ctx context.Context, songID id.ID, delta int) error {
	return s.repo.AdjustLikeCount(ctx, songID, delta)
}

// NormalizePositions rewrites a singer's track positions to a dense 1..n
// sequence. Administrative, returns the number of rows touched.
func (s *Service) NormalizePositions(ctx context.Context, singerID id.ID) (int64, error) {
	var touched int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		touched, err = s.repo.RenumberBySinger(ctx, singerID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("normalize positions: %w", err)
	}
	logger.Info(ctx, "song positions normalized", "singer_id", singerID, "touched", touched)
	return touched, nil
}
