package converter

import (
	"time"

	"github.com/spams12/gege/internal/domain"
)

type ProductConverter interface {
	ToRedisModel(entity *domain.Product) *ProductRedisModel
	ToEntity(model *ProductRedisModel) *domain.Product
}

type productConverter struct{}

func NewProductConverter() ProductConverter { return productConverter{} }

func (productConverter) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
		ID:                  entity.ID,
		Name:                entity.Name,
		Slug:                entity.Slug,
		CategoryID:          entity.CategoryID,
		Brand:               entity.Brand,
		Price:               entity.Price,
		DiscountPrice:       entity.DiscountPrice,
		Stock:               entity.Stock,
		IsActive:            entity.IsActive,
		IsFeatured:          entity.IsFeatured,
		IsAuction:           entity.IsAuction,
		StartingBid:         entity.StartingBid,
		MinimumBidIncrement: entity.MinimumBidIncrement,
		CurrentBid:          entity.CurrentBid,
		BidCount:            entity.BidCount,
		AuctionStartDate:    ConvertPointerTime(entity.AuctionStartDate),
		AuctionEndDate:      ConvertPointerTime(entity.AuctionEndDate),
		CreatedAt:           entity.CreatedAt,
		UpdatedAt:           ConvertPointerTime(entity.UpdatedAt),
	}
}

func (productConverter) ToEntity(model *ProductRedisModel) *domain.Product {
	return &domain.Product{
		ID:                  model.ID,
		Name:                model.Name,
		Slug:                model.Slug,
		CategoryID:          model.CategoryID,
		Brand:               model.Brand,
		Price:               model.Price,
		DiscountPrice:       model.DiscountPrice,
		Stock:               model.Stock,
		IsActive:            model.IsActive,
		IsFeatured:          model.IsFeatured,
		IsAuction:           model.IsAuction,
		StartingBid:         model.StartingBid,
		MinimumBidIncrement: model.MinimumBidIncrement,
		CurrentBid:          model.CurrentBid,
		BidCount:            model.BidCount,
		AuctionStartDate:    ConvertPointerTime(model.AuctionStartDate),
		AuctionEndDate:      ConvertPointerTime(model.AuctionEndDate),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           ConvertPointerTime(model.UpdatedAt),
	}
}

func ConvertPointerTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t

	return &v
}
