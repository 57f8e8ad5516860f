package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"melodia/internal/core/id"
	"melodia/internal/domain/catalogs/playlist"
	"melodia/internal/infrastructure/storage/postgres"
)

const (
	playlistTable     = "cat_playlist"
	playlistSongTable = "playlist_songs"
)

// PlaylistRepo implements playlist.Repository. Song membership lives in a
// separate ordered join table.
type PlaylistRepo struct {
	*BaseCatalogRepo[*playlist.Playlist]
}

// NewPlaylistRepo creates a new playlist repository.
func NewPlaylistRepo(tx *postgres.TxManager) *PlaylistRepo {
	return &PlaylistRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tx,
			playlistTable,
			postgres.ExtractDBColumns[playlist.Playlist](),
			func() *playlist.Playlist { return &playlist.Playlist{} },
		),
	}
}

// ReplaceSongs swaps the full ordered song list. Caller wraps this in a
// transaction together with the playlist write.
func (r *PlaylistRepo) ReplaceSongs(ctx context.Context, playlistID id.ID, songIDs []id.ID) error {
	querier := r.Querier(ctx)

	delQ := r.Builder().
		Delete(playlistSongTable).
		Where(squirrel.Eq{"playlist_id": playlistID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete songs: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete playlist songs: %w", err)
	}

	if len(songIDs) == 0 {
		return nil
	}

	insQ := r.Builder().
		Insert(playlistSongTable).
		Columns("playlist_id", "song_id", "position")
	for i, songID := range songIDs {
		insQ = insQ.Values(playlistID, songID, i+1)
	}

	sql, args, err = insQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert songs: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert playlist songs: %w", err)
	}

	return nil
}

// LoadSongs returns the ordered song list.
func (r *PlaylistRepo) LoadSongs(ctx context.Context, playlistID id.ID) ([]id.ID, error) {
	q := r.Builder().
		Select("song_id").
		From(playlistSongTable).
		Where(squirrel.Eq{"playlist_id": playlistID}).
		OrderBy("position ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load playlist songs: %w", err)
	}
	defer rows.Close()

	var songIDs []id.ID
	for rows.Next() {
		var songID id.ID
		if err := rows.Scan(&songID); err != nil {
			return nil, fmt.Errorf("scan song id: %w", err)
		}
		songIDs = append(songIDs, songID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist songs: %w", err)
	}

	return songIDs, nil
}
