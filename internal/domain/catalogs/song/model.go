// Package song is the song catalog.
package song

import (
	"context"

	"melodia/internal/core/apperror"
	"melodia/internal/core/entity"
	"melodia/internal/core/id"
)

// Song is a track published by a singer.
type Song struct {
	entity.Catalog

	SingerID id.ID  `db:"singer_id" json:"singerId"`
	TopicID  *id.ID `db:"topic_id" json:"topicId,omitempty"`

	// Position orders a singer's tracks; new tracks append at max+1.
	Position int `db:"position" json:"position"`

	ListenCount int64 `db:"listen_count" json:"listenCount"`
	LikeCount   int64 `db:"like_count" json:"likeCount"`

	AudioURL string `db:"audio_url" json:"audioUrl,omitempty"`
	CoverURL string `db:"cover_url" json:"coverUrl,omitempty"`
}

// New creates a song owned by the singer.
func New(name, slug string, singerID id.ID) *Song {
	return &Song{
		Catalog:  entity.NewCatalog(name, slug),
		SingerID: singerID,
	}
}

// Validate checks song invariants.
func (s *Song) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(s.SingerID) {
		return apperror.NewValidation("singer is required").WithDetail("field", "singerId")
	}
	return nil
}

// OwnedBy reports whether the singer owns this song.
func (s *Song) OwnedBy(singerID id.ID) bool {
	return s.SingerID == singerID
}
