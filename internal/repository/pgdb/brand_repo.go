package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/pkg/e"
)

// BrandRepo реализует репозиторий брендов поверх PostgreSQL.
type BrandRepo struct {
	pool *pgxpool.Pool
	conv converter.BrandConverter
}

func NewBrandRepo(pool *pgxpool.Pool, conv converter.BrandConverter) *BrandRepo {
	return &BrandRepo{pool: pool, conv: conv}
}

// List возвращает бренды, новые первыми.
func (b *BrandRepo) List(ctx context.Context) ([]domain.Brand, error) {
	query := `
		SELECT id, name, logo, description, website, created_at, updated_at
		FROM brands
		ORDER BY created_at DESC, id DESC
	`

	rows, err := b.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Brand, 0)
	for rows.Next() {
		var model converter.BrandModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Logo, &model.Description, &model.Website,
			&model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *b.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
