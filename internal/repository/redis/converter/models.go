package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRedisModel: представление товара в кэше. Деньги хранятся строкой, чтобы не терять точность.
type ProductRedisModel struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	Slug                string           `json:"slug"`
	CategoryID          *int64           `json:"category_id,omitempty"`
	Brand               string           `json:"brand"`
	Price               decimal.Decimal  `json:"price"`
	DiscountPrice       *decimal.Decimal `json:"discount_price,omitempty"`
	Stock               int              `json:"stock"`
	IsActive            bool             `json:"is_active"`
	IsFeatured          bool             `json:"is_featured"`
	IsAuction           bool             `json:"is_auction"`
	StartingBid         decimal.Decimal  `json:"starting_bid"`
	MinimumBidIncrement decimal.Decimal  `json:"minimum_bid_increment"`
	CurrentBid          *decimal.Decimal `json:"current_bid,omitempty"`
	BidCount            int              `json:"bid_count"`
	AuctionStartDate    *time.Time       `json:"auction_start_date,omitempty"`
	AuctionEndDate      *time.Time       `json:"auction_end_date,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           *time.Time       `json:"updated_at,omitempty"`
}
