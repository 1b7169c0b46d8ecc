package pgdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/tr"
)

const orderColumns = `
	id, customer_id, customer_name, customer_email, customer_phone, shipping_address,
	subtotal, shipping, discount, total, client_total,
	status, payment_method, shipping_method, created_at, idempotency_key`

const orderIdempotencyConstraint = "orders_customer_idempotency_key"

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{pool: pool, conv: conv}
}

func scanOrder(row pgx.Row, model *converter.OrderModel) error {
	return row.Scan(
		&model.ID, &model.CustomerID, &model.CustomerName, &model.CustomerEmail, &model.CustomerPhone,
		&model.ShippingAddress,
		&model.Subtotal, &model.Shipping, &model.Discount, &model.Total, &model.ClientTotal,
		&model.Status, &model.PaymentMethod, &model.ShippingMethod, &model.CreatedAt, &model.IdempotencyKey,
	)
}

// Create сохраняет заказ и его позиции в текущей транзакции.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(order)
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	if _, err := tx.Exec(ctx, query,
		model.ID, model.CustomerID, model.CustomerName, model.CustomerEmail, model.CustomerPhone,
		model.ShippingAddress,
		model.Subtotal, model.Shipping, model.Discount, model.Total, model.ClientTotal,
		model.Status, model.PaymentMethod, model.ShippingMethod, model.CreatedAt, model.IdempotencyKey,
	); err != nil {
		return orderInsertError(whereami.WhereAmI(), order.ID, err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, name, price, quantity, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, it := range model.Items {
		batch.Queue(itemQuery, it.OrderID, it.Position, it.ProductID, it.Name, it.Price, it.Quantity, it.Total)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var model converter.OrderModel
	if err := scanOrder(o.pool.QueryRow(ctx, query, id), &model); err != nil {
		if isNoRows(err) {
			return nil, e.ErrOrderNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models := []*converter.OrderModel{&model}
	if err := o.loadItems(ctx, models); err != nil {
		return nil, err
	}

	return o.conv.ToEntity(&model), nil
}

// orderInsertError сохраняет исходную ошибку драйвера в цепочке.
func orderInsertError(where, orderID string, err error) error {
	if violatesConstraint(err, orderIdempotencyConstraint) {
		return fmt.Errorf("%s: %w: %w", where, e.ErrDuplicateIdempotencyKey, err)
	}

	if postgresDuplicate(err) {
		return fmt.Errorf("%s: order with id %s already exists: %w", where, orderID, err)
	}

	return e.Wrap(where, err)
}

// GetByIdempotencyKey ищет заказ покупателя по ключу повтора запроса.
func (o *OrderRepo) GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 AND idempotency_key = $2`

	var model converter.OrderModel
	if err := scanOrder(o.pool.QueryRow(ctx, query, customerID, key), &model); err != nil {
		if isNoRows(err) {
			return nil, e.ErrOrderNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := o.loadItems(ctx, []*converter.OrderModel{&model}); err != nil {
		return nil, err
	}

	return o.conv.ToEntity(&model), nil
}

// ListByCustomer возвращает страницу заказов покупателя, новые первыми.
func (o *OrderRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := o.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID,
	).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	if total == 0 || offset >= total {
		return []domain.Order{}, total, nil
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := o.pool.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]*converter.OrderModel, 0, limit)
	for rows.Next() {
		var model converter.OrderModel
		if err := scanOrder(rows, &model); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	rows.Close()

	if err := o.loadItems(ctx, models); err != nil {
		return nil, 0, err
	}

	result := make([]domain.Order, 0, len(models))
	for _, m := range models {
		result = append(result, *o.conv.ToEntity(m))
	}

	return result, total, nil
}

// loadItems подгружает позиции сразу для всех переданных заказов.
func (o *OrderRepo) loadItems(ctx context.Context, models []*converter.OrderModel) error {
	ids := make([]string, 0, len(models))
	byID := make(map[string]*converter.OrderModel, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}

	query := `
		SELECT order_id, position, product_id, name, price, quantity, total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := o.pool.Query(ctx, query, ids)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var it converter.OrderItemModel
		if err := rows.Scan(
			&it.OrderID, &it.Position, &it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Total,
		); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if m, ok := byID[it.OrderID]; ok {
			m.Items = append(m.Items, it)
		}
	}

	if err := rows.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
