package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/repository/pgdb/converter"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/tr"
)

const customerColumns = `
	id, name, email, phone, address, total_spent, total_orders, last_order_at, created_at, updated_at`

// CustomerRepo реализует репозиторий профилей покупателей поверх PostgreSQL.
type CustomerRepo struct {
	pool *pgxpool.Pool
	conv converter.CustomerConverter
}

func NewCustomerRepo(pool *pgxpool.Pool, conv converter.CustomerConverter) *CustomerRepo {
	return &CustomerRepo{pool: pool, conv: conv}
}

func scanCustomer(row pgx.Row, model *converter.CustomerModel) error {
	return row.Scan(
		&model.ID, &model.Name, &model.Email, &model.Phone, &model.Address,
		&model.TotalSpent, &model.TotalOrders, &model.LastOrderAt, &model.CreatedAt, &model.UpdatedAt,
	)
}

func (c *CustomerRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var model converter.CustomerModel
	if err := scanCustomer(c.pool.QueryRow(ctx, query, id), &model); err != nil {
		if isNoRows(err) {
			return nil, e.ErrCustomerNotFound
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToEntity(&model), nil
}

// SaveProfile создаёт запись или обновляет контактные данные. Счётчики заказов не трогает.
func (c *CustomerRepo) SaveProfile(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := c.conv.ToModel(customer)
	query := `
		INSERT INTO customers (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			updated_at = NOW()
		RETURNING ` + customerColumns

	var saved converter.CustomerModel
	if err := scanCustomer(tx.QueryRow(ctx, query,
		model.ID, model.Name, model.Email, model.Phone, model.Address,
	), &saved); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToEntity(&saved), nil
}

// RecordOrder добавляет заказ в статистику. Покупатель без профиля получает запись
// с контактами из заказа.
func (c *CustomerRepo) RecordOrder(ctx context.Context, order *domain.Order) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ship := order.ShippingAddress
	address := converter.CustomerAddressModel{City: ship.City, Country: ship.Country, Full: ship.Address}

	query := `
		INSERT INTO customers (id, name, email, phone, address, total_spent, total_orders, last_order_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $7)
		ON CONFLICT (id) DO UPDATE
		SET total_spent = customers.total_spent + EXCLUDED.total_spent,
			total_orders = customers.total_orders + 1,
			last_order_at = GREATEST(customers.last_order_at, EXCLUDED.last_order_at)
	`

	if _, err := tx.Exec(ctx, query,
		order.CustomerID, order.CustomerName, order.CustomerEmail, order.CustomerPhone, address,
		order.Total, order.CreatedAt,
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
