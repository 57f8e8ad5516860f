package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/catalogs/singer"
	"melodia/internal/infrastructure/storage/postgres"
)

const singerTable = "cat_singer"

// SingerRepo implements singer.Repository.
type SingerRepo struct {
	*BaseCatalogRepo[*singer.Singer]
}

// NewSingerRepo creates a new singer repository.
func NewSingerRepo(tx *postgres.TxManager) *SingerRepo {
	return &SingerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tx,
			singerTable,
			postgres.ExtractDBColumns[singer.Singer](),
			func() *singer.Singer { return &singer.Singer{} },
		),
	}
}

// SetManager stores the managing user, nil clears the back-reference.
func (r *SingerRepo) SetManager(ctx context.Context, singerID id.ID, userID *id.ID) error {
	q := r.Builder().
		Update(singerTable).
		Set("manager_user_id", userID).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": singerID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set manager: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set manager: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("singer", singerID.String())
	}
	return nil
}
