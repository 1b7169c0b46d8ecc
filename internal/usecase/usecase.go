package usecase

import (
	"context"

	"github.com/spams12/gege/internal/domain"
)

type BidUC interface {
	PlaceBid(ctx context.Context, req *PlaceBidReq) (*PlaceBidRes, error)
	ListBids(ctx context.Context, req *ListBidsReq) ([]domain.Bid, error)
	ListAuctions(ctx context.Context, req *ListAuctionsReq) (*ListProductsRes, error)
}

type OrderUC interface {
	CreateOrder(ctx context.Context, req *CreateOrderReq) (*CreateOrderRes, error)
	GetOrder(ctx context.Context, buyer domain.Identity, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, req *ListOrdersReq) (*ListOrdersRes, error)
}

type ProductUC interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListProducts(ctx context.Context, req *ListProductsReq) (*ListProductsRes, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
}

type AccountUC interface {
	GetAccount(ctx context.Context, buyer domain.Identity) (*domain.Customer, error)
	UpdateAccount(ctx context.Context, req *UpdateAccountReq) (*domain.Customer, error)
}
