package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus: положение текущего момента относительно окна аукциона.
type AuctionStatus string

const (
	AuctionUpcoming AuctionStatus = "upcoming"
	AuctionActive   AuctionStatus = "active"
	AuctionEnded    AuctionStatus = "ended"
	// AuctionUnscheduled: у аукциона не задана одна из границ окна.
	AuctionUnscheduled AuctionStatus = "unscheduled"
)

// Product описывает товар каталога, в том числе аукционный.
type Product struct {
	ID            int64
	Name          string
	Slug          string
	CategoryID    *int64
	Brand         string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
	IsActive      bool
	IsFeatured    bool

	IsAuction           bool
	StartingBid         decimal.Decimal
	MinimumBidIncrement decimal.Decimal
	CurrentBid          *decimal.Decimal // nil, пока нет ни одной ставки
	BidCount            int
	AuctionStartDate    *time.Time
	AuctionEndDate      *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Validate проверяет инварианты записи, загруженной из хранилища.
func (p *Product) Validate() error {
	if p.Stock < 0 {
		return fmt.Errorf("product %d: negative stock %d", p.ID, p.Stock)
	}

	if p.Price.IsNegative() {
		return fmt.Errorf("product %d: negative price %s", p.ID, p.Price)
	}

	if !p.IsAuction {
		return nil
	}

	if p.StartingBid.IsNegative() {
		return fmt.Errorf("product %d: negative starting bid %s", p.ID, p.StartingBid)
	}

	if p.MinimumBidIncrement.IsNegative() {
		return fmt.Errorf("product %d: negative bid increment %s", p.ID, p.MinimumBidIncrement)
	}

	if p.CurrentBid != nil && p.BidCount == 0 {
		return fmt.Errorf("product %d: current bid without bids", p.ID)
	}

	return nil
}

// HasBids сообщает, была ли принята хотя бы одна ставка.
func (p *Product) HasBids() bool {
	return p.CurrentBid != nil
}

// StandingBid возвращает текущую лидирующую сумму: последнюю максимальную ставку или стартовую цену.
func (p *Product) StandingBid() decimal.Decimal {
	if p.CurrentBid != nil {
		return *p.CurrentBid
	}

	return p.StartingBid
}

// MinimumAcceptableBid: минимальная сумма следующей ставки.
func (p *Product) MinimumAcceptableBid() decimal.Decimal {
	return p.StandingBid().Add(p.MinimumBidIncrement)
}

// AcceptsBid сообщает, достаточна ли сумма для новой ставки.
// При равенстве сумм выигрывает более ранняя ставка, поэтому при наличии ставок
// сумма должна строго превышать текущую.
func (p *Product) AcceptsBid(amount decimal.Decimal) bool {
	if amount.LessThan(p.MinimumAcceptableBid()) {
		return false
	}

	if p.HasBids() && !amount.GreaterThan(*p.CurrentBid) {
		return false
	}

	return true
}

// AuctionStatusAt определяет состояние аукциона на момент now. Окно полуоткрытое: [start, end).
func (p *Product) AuctionStatusAt(now time.Time) AuctionStatus {
	if p.AuctionStartDate == nil || p.AuctionEndDate == nil {
		return AuctionUnscheduled
	}

	switch {
	case now.Before(*p.AuctionStartDate):
		return AuctionUpcoming
	case now.Before(*p.AuctionEndDate):
		return AuctionActive
	default:
		return AuctionEnded
	}
}

// IsAuctionActiveAt сообщает, принимает ли товар ставки в момент now.
func (p *Product) IsAuctionActiveAt(now time.Time) bool {
	return p.IsAuction && p.AuctionStatusAt(now) == AuctionActive
}

// ApplyBid фиксирует принятую ставку в агрегате.
func (p *Product) ApplyBid(amount decimal.Decimal) {
	if p.CurrentBid == nil || amount.GreaterThan(*p.CurrentBid) {
		a := amount
		p.CurrentBid = &a
	}
	p.BidCount++
}
