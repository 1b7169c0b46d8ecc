package http

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/usecase"
)

// REQUESTS

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type customerDetailsRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	City       string `json:"city"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type cartItemRequest struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     json.RawMessage `json:"price" swaggertype:"number"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

type createOrderRequest struct {
	CustomerDetails customerDetailsRequest `json:"customerDetails"`
	CartItems       []cartItemRequest      `json:"cartItems"`
	ShippingCost    decimal.Decimal        `json:"shippingCost"`
	ClientTotal     decimal.Decimal        `json:"clientTotal"`
}

// clientPrice возвращает nil, если клиент прислал не число.
func clientPrice(raw json.RawMessage) *decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}

	return &d
}

func (r *createOrderRequest) toUsecase(buyer domain.Identity, idempotencyKey string) *usecase.CreateOrderReq {
	items := make([]usecase.CartItem, 0, len(r.CartItems))
	for _, it := range r.CartItems {
		items = append(items, usecase.NewCartItem(it.ProductID, clientPrice(it.Price), it.Quantity))
	}

	cd := r.CustomerDetails
	email := cd.Email
	if email == "" {
		email = buyer.Email
	}
	address := domain.Address{
		Name:       cd.Name,
		Address:    cd.Address,
		City:       cd.City,
		PostalCode: cd.PostalCode,
		Country:    cd.Country,
		Email:      email,
		Phone:      cd.Phone,
	}

	return usecase.NewCreateOrderReq(buyer, address, items, r.ShippingCost, r.ClientTotal, idempotencyKey)
}

type accountAddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
	Full    string `json:"full"`
}

type updateAccountRequest struct {
	Name    string                `json:"name"`
	Email   string                `json:"email"`
	Phone   string                `json:"phone"`
	Address accountAddressRequest `json:"address"`
}

func (r *updateAccountRequest) toUsecase(buyer domain.Identity) *usecase.UpdateAccountReq {
	a := r.Address
	return usecase.NewUpdateAccountReq(buyer, r.Name, r.Email, r.Phone, domain.CustomerAddress{
		Street:  a.Street,
		City:    a.City,
		Country: a.Country,
		Full:    a.Full,
	})
}

// RESPONSES

type productResponse struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	CategoryID    *int64           `json:"categoryId,omitempty"`
	Brand         string           `json:"brand,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Stock         int              `json:"stock"`
	IsFeatured    bool             `json:"isFeatured"`
	IsAuction     bool             `json:"isAuction"`
	Auction       *auctionResponse `json:"auction,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type auctionResponse struct {
	Status               domain.AuctionStatus `json:"status"`
	StartingBid          decimal.Decimal      `json:"startingBid"`
	MinimumBidIncrement  decimal.Decimal      `json:"minimumBidIncrement"`
	CurrentBid           *decimal.Decimal     `json:"currentBid,omitempty"`
	MinimumAcceptableBid decimal.Decimal      `json:"minimumAcceptableBid"`
	BidCount             int                  `json:"bidCount"`
	StartDate            *time.Time           `json:"startDate,omitempty"`
	EndDate              *time.Time           `json:"endDate,omitempty"`
}

func newProductResponse(p *domain.Product, now time.Time) productResponse {
	res := productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		CategoryID:    p.CategoryID,
		Brand:         p.Brand,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.Stock,
		IsFeatured:    p.IsFeatured,
		IsAuction:     p.IsAuction,
		CreatedAt:     p.CreatedAt,
	}

	if p.IsAuction {
		res.Auction = &auctionResponse{
			Status:               p.AuctionStatusAt(now),
			StartingBid:          p.StartingBid,
			MinimumBidIncrement:  p.MinimumBidIncrement,
			CurrentBid:           p.CurrentBid,
			MinimumAcceptableBid: p.MinimumAcceptableBid(),
			BidCount:             p.BidCount,
			StartDate:            p.AuctionStartDate,
			EndDate:              p.AuctionEndDate,
		}
	}

	return res
}

type productListResponse struct {
	Products      []productResponse `json:"products"`
	TotalProducts int               `json:"totalProducts"`
	TotalPages    int               `json:"totalPages"`
	CurrentPage   int               `json:"currentPage"`
}

func newProductListResponse(res *usecase.ListProductsRes, now time.Time) productListResponse {
	products := make([]productResponse, 0, len(res.Products))
	for i := range res.Products {
		products = append(products, newProductResponse(&res.Products[i], now))
	}

	return productListResponse{
		Products:      products,
		TotalProducts: res.TotalProducts,
		TotalPages:    res.TotalPages,
		CurrentPage:   res.CurrentPage,
	}
}

type categoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parentId,omitempty"`
}

func newCategoriesResponse(categories []domain.Category) []categoryResponse {
	res := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		res = append(res, categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, ParentID: c.ParentID})
	}

	return res
}

type brandResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Logo        string    `json:"logo"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newBrandsResponse(brands []domain.Brand) []brandResponse {
	res := make([]brandResponse, 0, len(brands))
	for _, b := range brands {
		res = append(res, brandResponse{
			ID:          b.ID,
			Name:        b.Name,
			Logo:        b.Logo,
			Description: b.Description,
			Website:     b.Website,
			CreatedAt:   b.CreatedAt,
		})
	}

	return res
}

type accountAddressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Country string `json:"country"`
	Full    string `json:"full"`
}

// accountResponse: профиль и статистика заказов покупателя.
type accountResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	Phone       string                 `json:"phone"`
	Address     accountAddressResponse `json:"address"`
	TotalSpent  decimal.Decimal        `json:"totalSpent"`
	TotalOrders int                    `json:"totalOrders"`
	LastOrder   *time.Time             `json:"lastOrder,omitempty"`
	JoinDate    *time.Time             `json:"joinDate,omitempty"`
}

func newAccountResponse(c *domain.Customer) accountResponse {
	res := accountResponse{
		ID:    c.ID,
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
		Address: accountAddressResponse{
			Street:  c.Address.Street,
			City:    c.Address.City,
			Country: c.Address.Country,
			Full:    c.Address.Full,
		},
		TotalSpent:  c.TotalSpent,
		TotalOrders: c.TotalOrders,
		LastOrder:   c.LastOrderAt,
	}

	// У несохранённого профиля даты регистрации нет
	if !c.JoinedAt.IsZero() {
		joined := c.JoinedAt
		res.JoinDate = &joined
	}

	return res
}

// bidResponse не раскрывает телефон участника.
type bidResponse struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"productId"`
	Amount     decimal.Decimal `json:"amount"`
	BidderName string          `json:"bidderName"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func newBidResponse(b *domain.Bid) bidResponse {
	return bidResponse{
		ID:         b.ID,
		ProductID:  b.ProductID,
		Amount:     b.Amount,
		BidderName: b.BidderName,
		CreatedAt:  b.CreatedAt,
	}
}

func newBidsResponse(bids []domain.Bid) []bidResponse {
	res := make([]bidResponse, 0, len(bids))
	for i := range bids {
		res = append(res, newBidResponse(&bids[i]))
	}

	return res
}

type placeBidResponse struct {
	Message string          `json:"message"`
	Bid     bidResponse     `json:"bid"`
	Product productResponse `json:"product"`
}

type orderItemResponse struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	CustomerName    string              `json:"customerName"`
	CustomerEmail   string              `json:"customerEmail,omitempty"`
	CustomerPhone   string              `json:"customerPhone"`
	Items           []orderItemResponse `json:"items"`
	ShippingAddress domain.Address      `json:"shippingAddress"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Shipping        decimal.Decimal     `json:"shipping"`
	Discount        decimal.Decimal     `json:"discount"`
	Total           decimal.Decimal     `json:"total"`
	Status          domain.OrderStatus  `json:"status"`
	PaymentMethod   string              `json:"paymentMethod"`
	ShippingMethod  string              `json:"shippingMethod"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}

	return orderResponse{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		Subtotal:        o.Subtotal,
		Shipping:        o.Shipping,
		Discount:        o.Discount,
		Total:           o.Total,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		ShippingMethod:  o.ShippingMethod,
		CreatedAt:       o.CreatedAt,
	}
}

type createOrderResponse struct {
	Message string        `json:"message"`
	OrderID string        `json:"orderId"`
	Order   orderResponse `json:"order"`
}

type orderListResponse struct {
	Orders      []orderResponse `json:"orders"`
	TotalOrders int             `json:"totalOrders"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

func newOrderListResponse(res *usecase.ListOrdersRes) orderListResponse {
	orders := make([]orderResponse, 0, len(res.Orders))
	for i := range res.Orders {
		orders = append(orders, newOrderResponse(&res.Orders[i]))
	}

	return orderListResponse{
		Orders:      orders,
		TotalOrders: res.TotalOrders,
		TotalPages:  res.TotalPages,
		CurrentPage: res.CurrentPage,
	}
}
