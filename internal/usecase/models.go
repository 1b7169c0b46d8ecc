package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	defaultBidsLimit = 50
)

// BID USECASE

// PlaceBidReq: запрос на ставку от проверенного пользователя.
type PlaceBidReq struct {
	ProductID int64
	Bidder    domain.Identity
	Amount    decimal.Decimal
}

// PlaceBidRes: принятая ставка и состояние товара после неё.
type PlaceBidRes struct {
	Product *domain.Product
	Bid     *domain.Bid
}

type ListBidsReq struct {
	ProductID int64
	Limit     int
}

// ListAuctionsReq: запрос списка аукционов по состоянию окна.
type ListAuctionsReq struct {
	Status domain.AuctionStatus
	Page   int
	Limit  int
}

// ORDER USECASE

// CartItem: позиция корзины в том виде, в каком её прислал клиент.
type CartItem struct {
	ProductID   int64
	ClientPrice *decimal.Decimal // nil, если клиент прислал не число
	Quantity    int
}

// CreateOrderReq: запрос на оформление заказа.
type CreateOrderReq struct {
	Buyer          domain.Identity
	Shipping       domain.Address
	Items          []CartItem
	ShippingCost   decimal.Decimal
	ClientTotal    decimal.Decimal
	IdempotencyKey string
}

type CreateOrderRes struct {
	OrderID  string
	Order    *domain.Order
	Replayed bool // заказ уже был создан ранее с тем же ключом идемпотентности
}

type ListOrdersReq struct {
	Buyer domain.Identity
	Page  int
	Limit int
}

type ListOrdersRes struct {
	Orders      []domain.Order
	TotalOrders int
	TotalPages  int
	CurrentPage int
}

// TotalPolicy: политика сверки итоговой суммы клиента с серверной.
type TotalPolicy string

const (
	TotalPolicyAudit  TotalPolicy = "audit"
	TotalPolicyReject TotalPolicy = "reject"
)

// CheckoutPolicy настраивает сверку итоговой суммы.
type CheckoutPolicy struct {
	Total     TotalPolicy
	Tolerance decimal.Decimal
}

// TotalVerdict: результат сверки сумм, сохраняется в аудит заказа.
type TotalVerdict struct {
	Policy      TotalPolicy     `json:"policy"`
	ServerTotal decimal.Decimal `json:"serverTotal"`
	ClientTotal decimal.Decimal `json:"clientTotal"`
	Difference  decimal.Decimal `json:"difference"`
	Matched     bool            `json:"matched"`
}

// PRODUCT USECASE

// ProductSort: допустимые варианты сортировки каталога.
type ProductSort string

const (
	SortFeatured  ProductSort = "featured"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
	SortNewest    ProductSort = "newest"
)

func (s ProductSort) Valid() bool {
	switch s {
	case SortFeatured, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	default:
		return false
	}
}

// ListProductsReq: фильтры каталога.
type ListProductsReq struct {
	CategoryIDs []int64
	Brands      []string
	PriceMin    *decimal.Decimal
	PriceMax    *decimal.Decimal
	InStock     bool
	Search      string
	Sort        ProductSort
	Page        int
	Limit       int
}

type ListProductsRes struct {
	Products      []domain.Product
	TotalProducts int
	TotalPages    int
	CurrentPage   int
}

// REPOSITORIES

// ProductFilter: фильтр выборки товаров для репозитория.
type ProductFilter struct {
	CategoryIDs   []int64
	Brands        []string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	InStock       bool
	Search        string
	Sort          ProductSort
	OnlyAuctions  bool
	AuctionStatus domain.AuctionStatus
	Now           time.Time
	Limit         int
	Offset        int
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	Failed     OutboxStatus = "failed" // брокер отверг событие, повтор не поможет
)

type OutboxEventType string

const (
	EventOrderCreated OutboxEventType = "order.created"
	EventBidPlaced    OutboxEventType = "bid.placed"
)

// OutboxEvent: событие, записанное в той же транзакции, что и изменение данных.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	AggregateID string
	Payload     []byte
	Status      OutboxStatus
	Attempts    int // сколько раз событие забирал воркер
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Envelope: общий конверт событий, публикуемых в Kafka.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     OutboxEventType `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       any             `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string             `json:"order_id"`
	CustomerID  string             `json:"customer_id"`
	Items       []OrderCreatedItem `json:"items"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Shipping    decimal.Decimal    `json:"shipping"`
	Total       decimal.Decimal    `json:"total"`
	ClientTotal decimal.Decimal    `json:"client_total"`
	Status      domain.OrderStatus `json:"status"`
}

type OrderCreatedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type BidPlacedPayload struct {
	BidID      int64           `json:"bid_id"`
	ProductID  int64           `json:"product_id"`
	BidderID   string          `json:"bidder_id"`
	Amount     decimal.Decimal `json:"amount"`
	CurrentBid decimal.Decimal `json:"current_bid"`
	BidCount   int             `json:"bid_count"`
}

// INFRASTRUCTURE

// WriteRawMessageReq: готовое к отправке сообщение брокера.
type WriteRawMessageReq struct {
	Key       string
	EventType OutboxEventType
	Payload   []byte
}

// MAPPERS

func NewPlaceBidReq(productID int64, bidder domain.Identity, amount decimal.Decimal) *PlaceBidReq {
	return &PlaceBidReq{
		ProductID: productID,
		Bidder:    bidder,
		Amount:    amount,
	}
}

func NewPlaceBidRes(product *domain.Product, bid *domain.Bid) *PlaceBidRes {
	return &PlaceBidRes{
		Product: product,
		Bid:     bid,
	}
}

func NewListBidsReq(productID int64, limit int) *ListBidsReq {
	return &ListBidsReq{ProductID: productID, Limit: limit}
}

func NewListAuctionsReq(status domain.AuctionStatus, page, limit int) *ListAuctionsReq {
	return &ListAuctionsReq{Status: status, Page: page, Limit: limit}
}

func NewCartItem(productID int64, clientPrice *decimal.Decimal, quantity int) CartItem {
	return CartItem{
		ProductID:   productID,
		ClientPrice: clientPrice,
		Quantity:    quantity,
	}
}

func NewCreateOrderReq(buyer domain.Identity, shipping domain.Address, items []CartItem,
	shippingCost, clientTotal decimal.Decimal, idempotencyKey string) *CreateOrderReq {
	return &CreateOrderReq{
		Buyer:          buyer,
		Shipping:       shipping,
		Items:          items,
		ShippingCost:   shippingCost,
		ClientTotal:    clientTotal,
		IdempotencyKey: idempotencyKey,
	}
}

func NewCreateOrderRes(order *domain.Order, replayed bool) *CreateOrderRes {
	return &CreateOrderRes{
		OrderID:  order.ID,
		Order:    order,
		Replayed: replayed,
	}
}

func NewListOrdersReq(buyer domain.Identity, page, limit int) *ListOrdersReq {
	return &ListOrdersReq{Buyer: buyer, Page: page, Limit: limit}
}

func NewListProductsRes(products []domain.Product, total, page, limit int) *ListProductsRes {
	return &ListProductsRes{
		Products:      products,
		TotalProducts: total,
		TotalPages:    totalPages(total, limit),
		CurrentPage:   page,
	}
}

func NewWriteRawMessageReq(key string, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       key,
		EventType: eventType,
		Payload:   payload,
	}
}

func newOrderCreatedPayload(order *domain.Order) OrderCreatedPayload {
	items := make([]OrderCreatedItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderCreatedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return OrderCreatedPayload{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Items:       items,
		Subtotal:    order.Subtotal,
		Shipping:    order.Shipping,
		Total:       order.Total,
		ClientTotal: order.ClientTotal,
		Status:      order.Status,
	}
}

func newBidPlacedPayload(product *domain.Product, bid *domain.Bid) BidPlacedPayload {
	return BidPlacedPayload{
		BidID:      bid.ID,
		ProductID:  product.ID,
		BidderID:   bid.BidderID,
		Amount:     bid.Amount,
		CurrentBid: product.StandingBid(),
		BidCount:   product.BidCount,
	}
}

// normalizePage приводит номер страницы и размер выборки к допустимым значениям.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit
}

func totalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}

	return (total + limit - 1) / limit
}

// ACCOUNT USECASE

// UpdateAccountReq: новые контактные данные покупателя. Пустая строка очищает поле.
type UpdateAccountReq struct {
	Buyer   domain.Identity
	Name    string
	Email   string
	Phone   string
	Address domain.CustomerAddress
}

func NewUpdateAccountReq(buyer domain.Identity, name, email, phone string, address domain.CustomerAddress) *UpdateAccountReq {
	return &UpdateAccountReq{
		Buyer:   buyer,
		Name:    name,
		Email:   email,
		Phone:   phone,
		Address: address,
	}
}
