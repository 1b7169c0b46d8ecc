package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bid: ставка на аукционный товар. После создания не изменяется.
type Bid struct {
	ID          int64
	ProductID   int64
	Amount      decimal.Decimal
	BidderID    string
	BidderName  string
	BidderPhone string
	CreatedAt   time.Time
}

func NewBid(productID int64, amount decimal.Decimal, bidder Identity, createdAt time.Time) *Bid {
	return &Bid{
		ProductID:   productID,
		Amount:      amount,
		BidderID:    bidder.Subject,
		BidderName:  bidder.Name,
		BidderPhone: bidder.Phone,
		CreatedAt:   createdAt,
	}
}

// SortBidsForDisplay сортирует ставки от новых к старым.
func SortBidsForDisplay(bids []Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})
}

// WinningBid возвращает лидирующую ставку: наибольшая сумма, при равенстве более ранняя.
func WinningBid(bids []Bid) *Bid {
	var winner *Bid
	for i := range bids {
		b := &bids[i]
		if winner == nil ||
			b.Amount.GreaterThan(winner.Amount) ||
			(b.Amount.Equal(winner.Amount) && b.CreatedAt.Before(winner.CreatedAt)) {
			winner = b
		}
	}

	return winner
}
