package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID         int64      `db:"id"`
	Name       string     `db:"name"`
	Slug       string     `db:"slug"`
	ParentID   *int64     `db:"parent_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at"`
	IsArchived bool       `db:"is_archived"`
}

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID                  int64               `db:"id"`
	Name                string              `db:"name"`
	Slug                string              `db:"slug"`
	CategoryID          *int64              `db:"category_id"`
	Brand               string              `db:"brand"`
	Price               decimal.Decimal     `db:"price"`
	DiscountPrice       decimal.NullDecimal `db:"discount_price"`
	Stock               int                 `db:"stock"`
	IsActive            bool                `db:"is_active"`
	IsFeatured          bool                `db:"is_featured"`
	IsAuction           bool                `db:"is_auction"`
	StartingBid         decimal.Decimal     `db:"starting_bid"`
	MinimumBidIncrement decimal.Decimal     `db:"minimum_bid_increment"`
	CurrentBid          decimal.NullDecimal `db:"current_bid"`
	BidCount            int                 `db:"bid_count"`
	AuctionStartDate    *time.Time          `db:"auction_start_date"`
	AuctionEndDate      *time.Time          `db:"auction_end_date"`
	CreatedAt           time.Time           `db:"created_at"`
	UpdatedAt           *time.Time          `db:"updated_at"`
}

// BrandModel представляет запись таблицы brands в PostgreSQL.
type BrandModel struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Logo        string     `db:"logo"`
	Description string     `db:"description"`
	Website     string     `db:"website"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// CustomerAddressModel хранится в колонке customers.address (JSONB).
type CustomerAddressModel struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Full    string `json:"full,omitempty"`
}

// CustomerModel представляет запись таблицы customers в PostgreSQL.
type CustomerModel struct {
	ID          string               `db:"id"`
	Name        string               `db:"name"`
	Email       string               `db:"email"`
	Phone       string               `db:"phone"`
	Address     CustomerAddressModel `db:"address"`
	TotalSpent  decimal.Decimal      `db:"total_spent"`
	TotalOrders int                  `db:"total_orders"`
	LastOrderAt *time.Time           `db:"last_order_at"`
	CreatedAt   time.Time            `db:"created_at"`
	UpdatedAt   *time.Time           `db:"updated_at"`
}

// BidModel представляет запись таблицы bids в PostgreSQL.
type BidModel struct {
	ID          int64           `db:"id"`
	ProductID   int64           `db:"product_id"`
	Amount      decimal.Decimal `db:"amount"`
	BidderID    string          `db:"bidder_id"`
	BidderName  string          `db:"bidder_name"`
	BidderPhone string          `db:"bidder_phone"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AddressModel хранится в колонке orders.shipping_address (JSONB).
type AddressModel struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
type OrderModel struct {
	ID              string          `db:"id"`
	CustomerID      string          `db:"customer_id"`
	CustomerName    string          `db:"customer_name"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerPhone   string          `db:"customer_phone"`
	ShippingAddress AddressModel    `db:"shipping_address"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	Shipping        decimal.Decimal `db:"shipping"`
	Discount        decimal.Decimal `db:"discount"`
	Total           decimal.Decimal `db:"total"`
	ClientTotal     decimal.Decimal `db:"client_total"`
	Status          string          `db:"status"`
	PaymentMethod   string          `db:"payment_method"`
	ShippingMethod  string          `db:"shipping_method"`
	CreatedAt       time.Time       `db:"created_at"`
	IdempotencyKey  *string         `db:"idempotency_key"`
	Items           []OrderItemModel
}

// OrderItemModel представляет запись таблицы order_items в PostgreSQL.
type OrderItemModel struct {
	OrderID   string          `db:"order_id"`
	Position  int             `db:"position"`
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	Total     decimal.Decimal `db:"total"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	Attempts    int        `db:"attempts"`
	LastError   *string    `db:"last_error"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
