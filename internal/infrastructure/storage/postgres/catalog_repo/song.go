package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/catalogs/song"
	"melodia/internal/infrastructure/storage/postgres"
)

const songTable = "cat_song"

// SongRepo implements song.Repository.
type SongRepo struct {
	*BaseCatalogRepo[*song.Song]
}

// NewSongRepo creates a new song repository.
func NewSongRepo(tx *postgres.TxManager) *SongRepo {
	return &SongRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tx,
			songTable,
			postgres.ExtractDBColumns[song.Song](),
			func() *song.Song { return &song.Song{} },
		),
	}
}

// MaxPosition returns the highest position among the singer's songs, zero
// when the singer has none.
func (r *SongRepo) MaxPosition(ctx context.Context, singerID id.ID) (int, error) {
	q := r.Builder().
		Select("COALESCE(MAX(position), 0)").
		From(songTable).
		Where(squirrel.Eq{"singer_id": singerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var maxPos int
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&maxPos); err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	return maxPos, nil
}

// ListBySinger returns the singer's songs ordered by position.
func (r *SongRepo) ListBySinger(ctx context.Context, singerID id.ID) ([]*song.Song, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"singer_id": singerID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("position ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*song.Song
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list by singer: %w", err)
	}
	return items, nil
}

// IncrementListen bumps the listen counter by one.
func (r *SongRepo) IncrementListen(ctx context.Context, songID id.ID) error {
	q := r.Builder().
		Update(songTable).
		Set("listen_count", squirrel.Expr("listen_count + 1")).
		Where(squirrel.Eq{"id": songID}).
		Where(squirrel.Eq{"deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build increment listen: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("increment listen: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("song", songID.String())
	}
	return nil
}

// AdjustLikeCount moves the like counter by delta, clamped at zero.
func (r *SongRepo) AdjustLikeCount(ctx context.Context, songID id.ID, delta int) error {
	q := r.Builder().
		Update(songTable).
		Set("like_count", squirrel.Expr("GREATEST(0, like_count + ?)", delta)).
		Where(squirrel.Eq{"id": songID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build adjust like count: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust like count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("song", songID.String())
	}
	return nil
}

// RenumberBySinger rewrites the singer's song positions to a dense 1..n
// sequence in the current position order.
func (r *SongRepo) RenumberBySinger(ctx context.Context, singerID id.ID) (int64, error) {
	sql := `
		UPDATE ` + songTable + ` s
		SET position = ranked.rn
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position, id) AS rn
			FROM ` + songTable + `
			WHERE singer_id = $1 AND deletion_mark = false
		) ranked
		WHERE s.id = ranked.id AND s.position <> ranked.rn`

	result, err := r.Querier(ctx).Exec(ctx, sql, singerID)
	if err != nil {
		return 0, fmt.Errorf("renumber by singer: %w", err)
	}
	return result.RowsAffected(), nil
}
