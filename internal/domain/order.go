package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus: состояние заказа в процессе обработки.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

const (
	PaymentCashOnDelivery = "cash_on_delivery"
	ShippingStandard      = "standard"
)

// Address: снимок адреса доставки на момент оформления.
type Address struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

// OrderItem: снимок позиции заказа. Цена и название берутся из товара на момент оформления.
type OrderItem struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

func NewOrderItem(product *Product, quantity int) OrderItem {
	return OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
		Total:     product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Order: заказ покупателя.
type Order struct {
	ID              string
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Items           []OrderItem
	ShippingAddress Address
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	ClientTotal     decimal.Decimal // значение клиента, хранится только для аудита
	Status          OrderStatus
	PaymentMethod   string
	ShippingMethod  string
	CreatedAt       time.Time
	IdempotencyKey  string // ключ повтора запроса, уникален в пределах покупателя
}

// NewOrder собирает заказ и вычисляет итоговые суммы по позициям.
func NewOrder(id string, buyer Identity, address Address, items []OrderItem,
	shipping decimal.Decimal, clientTotal decimal.Decimal, createdAt time.Time) *Order {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}

	name := buyer.Name
	if name == "" {
		name = address.Name
	}

	return &Order{
		ID:              id,
		CustomerID:      buyer.Subject,
		CustomerName:    name,
		CustomerEmail:   buyer.Email,
		CustomerPhone:   address.Phone,
		Items:           items,
		ShippingAddress: address,
		Subtotal:        subtotal,
		Shipping:        shipping,
		Discount:        decimal.Zero,
		Total:           subtotal.Add(shipping),
		ClientTotal:     clientTotal,
		Status:          OrderStatusProcessing,
		PaymentMethod:   PaymentCashOnDelivery,
		ShippingMethod:  ShippingStandard,
		CreatedAt:       createdAt,
	}
}
