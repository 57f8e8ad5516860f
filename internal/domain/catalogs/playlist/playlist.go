// Package playlist is the playlist catalog.
package playlist

import (
	"context"
	"fmt"

	"melodia/internal/core/apperror"
	"melodia/internal/core/entity"
	"melodia/internal/core/id"
	"melodia/internal/core/tx"
	"melodia/internal/domain"
)

// Playlist is an ordered list of song references.
type Playlist struct {
	entity.Catalog

	CoverURL string `db:"cover_url" json:"coverUrl,omitempty"`

	// SongIDs keeps insertion order.
	SongIDs []id.ID `db:"-" json:"songIds"`
}

// New creates a playlist.
func New(name, slug string, songIDs []id.ID) *Playlist {
	return &Playlist{
		Catalog: entity.NewCatalog(name, slug),
		SongIDs: songIDs,
	}
}

// Repository extends the generic catalog contract with song list storage.
type Repository interface {
	domain.CatalogRepository[*Playlist]

	// ReplaceSongs swaps the full ordered song list.
	ReplaceSongs(ctx context.Context, playlistID id.ID, songIDs []id.ID) error

	// LoadSongs returns the ordered song list.
	LoadSongs(ctx context.Context, playlistID id.ID) ([]id.ID, error)
}

// SongRegistry validates song references eagerly.
type SongRegistry interface {
	Exists(ctx context.Context, songID id.ID) (bool, error)
}

// Service implements the playlist catalog.
type Service struct {
	*domain.CatalogService[*Playlist]

	repo      Repository
	songs     SongRegistry
	txManager tx.Manager
}

// NewService creates the playlist service.
func NewService(repo Repository, songs SongRegistry, txManager tx.Manager) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Playlist]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "playlist",
		}),
		repo:      repo,
		songs:     songs,
		txManager: txManager,
	}
	normalize := func(ctx context.Context, list *Playlist) error {
		list.Slug = entity.NormalizeSlug(list.Slug, list.Name)
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, normalize)
	s.Hooks().On(domain.BeforeUpdate, normalize)
	return s
}

// CreateWithSongs validates every song reference, then persists the playlist
// and its ordered list in one transaction.
func (s *Service) CreateWithSongs(ctx context.Context, list *Playlist) error {
	if err := s.validateSongRefs(ctx, list.SongIDs); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.CatalogService.Create(ctx, list); err != nil {
			return err
		}
		return s.repo.ReplaceSongs(ctx, list.ID, list.SongIDs)
	})
}

// ReplaceSongs swaps the ordered song list after eager validation.
func (s *Service) ReplaceSongs(ctx context.Context, playlistID id.ID, songIDs []id.ID) error {
	if err := s.validateSongRefs(ctx, songIDs); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, playlistID); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.ReplaceSongs(ctx, playlistID, songIDs)
	})
}

// GetWithSongs returns the playlist with its ordered song list loaded.
func (s *Service) GetWithSongs(ctx context.Context, playlistID id.ID) (*Playlist, error) {
	list, err := s.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	songs, err := s.repo.LoadSongs(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("load songs: %w", err)
	}
	list.SongIDs = songs
	return list, nil
}

func (s *Service) validateSongRefs(ctx context.Context, songIDs []id.ID) error {
	for _, sid := range songIDs {
		ok, err := s.songs.Exists(ctx, sid)
		if err != nil {
			return fmt.Errorf("check song %s: %w", sid, err)
		}
		if !ok {
			return apperror.NewInvalidReference("song", sid.String())
		}
	}
	return nil
}
