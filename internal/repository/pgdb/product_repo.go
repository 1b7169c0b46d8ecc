package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/tr"
)

const productColumns = `
	p.id, p.name, p.slug, p.category_id, p.brand, p.price, p.discount_price, p.stock,
	p.is_active, p.is_featured, p.is_auction, p.starting_bid, p.minimum_bid_increment,
	p.current_bid, p.bid_count, p.auction_start_date, p.auction_end_date,
	p.created_at, p.updated_at`

// productOrderBy сопоставляет сортировку каталога с выражением ORDER BY.
// В запрос попадают только значения из этой таблицы.
var productOrderBy = map[usecase.ProductSort]string{
	usecase.SortFeatured:  "p.is_featured DESC, p.created_at DESC, p.id",
	usecase.SortPriceAsc:  "COALESCE(p.discount_price, p.price) ASC, p.id",
	usecase.SortPriceDesc: "COALESCE(p.discount_price, p.price) DESC, p.id",
	usecase.SortNewest:    "p.created_at DESC, p.id",
}

// auctionOrderBy задаёт порядок выдачи аукционов в зависимости от их статуса.
var auctionOrderBy = map[domain.AuctionStatus]string{
	domain.AuctionActive:   "p.auction_end_date ASC, p.id",
	domain.AuctionUpcoming: "p.auction_start_date ASC, p.id",
	domain.AuctionEnded:    "p.auction_end_date DESC, p.id",
}

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func scanProduct(row pgx.Row, model *converter.ProductModel) error {
	return row.Scan(
		&model.ID, &model.Name, &model.Slug, &model.CategoryID, &model.Brand,
		&model.Price, &model.DiscountPrice, &model.Stock,
		&model.IsActive, &model.IsFeatured, &model.IsAuction,
		&model.StartingBid, &model.MinimumBidIncrement,
		&model.CurrentBid, &model.BidCount, &model.AuctionStartDate, &model.AuctionEndDate,
		&model.CreatedAt, &model.UpdatedAt,
	)
}

func (p *ProductRepo) toValidEntity(model *converter.ProductModel) (*domain.Product, error) {
	product := p.conv.ToEntity(model)
	if err := validProduct(product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetByID читает товар вне транзакции.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	var model converter.ProductModel
	if err := scanProduct(p.pool.QueryRow(ctx, query, id), &model); err != nil {
		if isNoRows(err) {
			return nil, &e.ProductNotFoundError{ProductID: id}
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.toValidEntity(&model)
}

// GetBySlug читает товар по адресу страницы вне транзакции.
func (p *ProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.slug = $1`

	var model converter.ProductModel
	if err := scanProduct(p.pool.QueryRow(ctx, query, slug), &model); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: slug %q: %w", whereami.WhereAmI(), slug, e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.toValidEntity(&model)
}

// GetForUpdate читает товар с блокировкой строки до конца текущей транзакции.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 FOR UPDATE`

	var model converter.ProductModel
	if err := scanProduct(tx.QueryRow(ctx, query, id), &model); err != nil {
		if isNoRows(err) {
			return nil, &e.ProductNotFoundError{ProductID: id}
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.toValidEntity(&model)
}

// GetManyForUpdate блокирует строки в порядке возрастания id, отсутствующие товары не возвращаются.
func (p *ProductRepo) GetManyForUpdate(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) ORDER BY p.id FOR UPDATE`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make(map[int64]*domain.Product, len(ids))
	for rows.Next() {
		var model converter.ProductModel
		if err := scanProduct(rows, &model); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		product, err := p.toValidEntity(&model)
		if err != nil {
			return nil, err
		}
		result[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// buildProductWhere собирает условие выборки каталога и его аргументы.
func buildProductWhere(f *usecase.ProductFilter) (string, []any) {
	conds := []string{"p.is_active"}
	args := make([]any, 0, 8)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.CategoryIDs) > 0 {
		conds = append(conds, "p.category_id = ANY("+arg(f.CategoryIDs)+")")
	}
	if len(f.Brands) > 0 {
		conds = append(conds, "p.brand = ANY("+arg(f.Brands)+")")
	}
	if f.PriceMin != nil {
		conds = append(conds, "COALESCE(p.discount_price, p.price) >= "+arg(*f.PriceMin))
	}
	if f.PriceMax != nil {
		conds = append(conds, "COALESCE(p.discount_price, p.price) <= "+arg(*f.PriceMax))
	}
	if f.InStock {
		conds = append(conds, "p.stock > 0")
	}
	if f.Search != "" {
		conds = append(conds, "p.name ILIKE "+arg("%"+escapeLike(f.Search)+"%"))
	}

	if f.OnlyAuctions {
		conds = append(conds, "p.is_auction",
			"p.auction_start_date IS NOT NULL", "p.auction_end_date IS NOT NULL")

		now := arg(f.Now)
		switch f.AuctionStatus {
		case domain.AuctionUpcoming:
			conds = append(conds, "p.auction_start_date > "+now)
		case domain.AuctionEnded:
			conds = append(conds, "p.auction_end_date <= "+now)
		default:
			conds = append(conds, "p.auction_start_date <= "+now, "p.auction_end_date > "+now)
		}
	}

	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func productOrder(f *usecase.ProductFilter) string {
	if f.OnlyAuctions {
		if order, ok := auctionOrderBy[f.AuctionStatus]; ok {
			return order
		}
	}

	if order, ok := productOrderBy[f.Sort]; ok {
		return order
	}

	return productOrderBy[usecase.SortFeatured]
}

// List возвращает страницу каталога и общее количество подходящих товаров.
func (p *ProductRepo) List(ctx context.Context, f *usecase.ProductFilter) ([]domain.Product, int, error) {
	where, args := buildProductWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM products p WHERE ` + where
	if err := p.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if total == 0 || f.Offset >= total {
		return []domain.Product{}, total, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products p WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, productOrder(f), len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0, f.Limit)
	for rows.Next() {
		var model converter.ProductModel
		if err := scanProduct(rows, &model); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		product, err := p.toValidEntity(&model)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, total, nil
}

// DecrementStock списывает остаток. Условие stock >= $2 не даёт уйти в минус.
func (p *ProductRepo) DecrementStock(ctx context.Context, id int64, quantity int) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: product %d: %w", whereami.WhereAmI(), id, e.ErrInsufficientStock)
	}

	return nil
}

// ApplyBid обновляет текущую ставку и счётчик ставок.
func (p *ProductRepo) ApplyBid(ctx context.Context, id int64, amount decimal.Decimal) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET current_bid = GREATEST(COALESCE(current_bid, $2), $2),
			bid_count = bid_count + 1,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, amount)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return &e.ProductNotFoundError{ProductID: id}
	}

	return nil
}
