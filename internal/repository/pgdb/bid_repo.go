package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/tr"
)

// BidRepo реализует репозиторий ставок поверх PostgreSQL.
type BidRepo struct {
	pool *pgxpool.Pool
	conv converter.BidConverter
}

func NewBidRepo(pool *pgxpool.Pool, conv converter.BidConverter) *BidRepo {
	return &BidRepo{pool: pool, conv: conv}
}

func (b *BidRepo) Create(ctx context.Context, bid *domain.Bid) (*domain.Bid, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := b.conv.ToModel(bid)
	query := `
		INSERT INTO bids (product_id, amount, bidder_id, bidder_name, bidder_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	if err := tx.QueryRow(ctx, query,
		model.ProductID,
		model.Amount,
		model.BidderID,
		model.BidderName,
		model.BidderPhone,
		model.CreatedAt,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return b.conv.ToEntity(model), nil
}

// ListByProduct возвращает последние ставки на товар, новые первыми.
func (b *BidRepo) ListByProduct(ctx context.Context, productID int64, limit int) ([]domain.Bid, error) {
	query := `
		SELECT id, product_id, amount, bidder_id, bidder_name, bidder_phone, created_at
		FROM bids
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := b.pool.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Bid, 0)
	for rows.Next() {
		var model converter.BidModel
		if err := rows.Scan(
			&model.ID, &model.ProductID, &model.Amount,
			&model.BidderID, &model.BidderName, &model.BidderPhone, &model.CreatedAt,
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
