package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerAddress: адрес из профиля, используется для предзаполнения оформления заказа.
type CustomerAddress struct {
	Street  string
	City    string
	Country string
	Full    string
}

// Customer: профиль покупателя и накопленная статистика заказов.
// Статистику меняет только оформление заказа.
type Customer struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Address     CustomerAddress
	TotalSpent  decimal.Decimal
	TotalOrders int
	LastOrderAt *time.Time
	JoinedAt    time.Time
	UpdatedAt   *time.Time
}

// NewCustomer собирает профиль из данных токена для покупателя без сохранённой записи.
func NewCustomer(identity Identity) *Customer {
	return &Customer{
		ID:         identity.Subject,
		Name:       identity.Name,
		Email:      identity.Email,
		Phone:      identity.Phone,
		TotalSpent: decimal.Zero,
	}
}

// RecordOrder учитывает оформленный заказ в статистике.
func (c *Customer) RecordOrder(total decimal.Decimal, at time.Time) {
	c.TotalSpent = c.TotalSpent.Add(total)
	c.TotalOrders++
	if c.LastOrderAt == nil || at.After(*c.LastOrderAt) {
		c.LastOrderAt = &at
	}
}
