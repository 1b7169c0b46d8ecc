package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func auctionProduct(start, end time.Time) *Product {
	return &Product{
		ID:                  1,
		Name:                "Camera",
		IsAuction:           true,
		StartingBid:         dec(1000),
		MinimumBidIncrement: dec(100),
		AuctionStartDate:    &start,
		AuctionEndDate:      &end,
	}
}

func TestProductMinimumAcceptableBid(t *testing.T) {
	now := time.Now()
	p := auctionProduct(now.Add(-time.Hour), now.Add(time.Hour))

	assert.True(t, p.MinimumAcceptableBid().Equal(dec(1100)))
	assert.False(t, p.AcceptsBid(dec(1050)))
	assert.True(t, p.AcceptsBid(dec(1100)))

	p.ApplyBid(dec(1100))
	require.NotNil(t, p.CurrentBid)
	assert.True(t, p.CurrentBid.Equal(dec(1100)))
	assert.Equal(t, 1, p.BidCount)
	assert.True(t, p.MinimumAcceptableBid().Equal(dec(1200)))
	assert.False(t, p.AcceptsBid(dec(1150)))
}

func TestProductAcceptsBidTieWithZeroIncrement(t *testing.T) {
	now := time.Now()
	p := auctionProduct(now.Add(-time.Hour), now.Add(time.Hour))
	p.MinimumBidIncrement = decimal.Zero

	assert.True(t, p.AcceptsBid(dec(1000)), "first bid may equal the starting bid")

	p.ApplyBid(dec(1000))
	assert.False(t, p.AcceptsBid(dec(1000)), "an equal bid never displaces the earlier one")
	assert.True(t, p.AcceptsBid(dec(1001)))
}

func TestIsStorableMoney(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1150.55", true},
		{"1150.550", true},
		{"0", true},
		{"999999999999.99", true},
		{"1150.555", false},
		{"0.001", false},
		{"1100.004", false},
		{"1000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStorableMoney(decimal.RequireFromString(tt.value)))
		})
	}
}

func TestProductAuctionStatusAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	p := auctionProduct(start, end)

	tests := []struct {
		name string
		now  time.Time
		want AuctionStatus
	}{
		{name: "before start", now: start.Add(-time.Second), want: AuctionUpcoming},
		{name: "at start", now: start, want: AuctionActive},
		{name: "inside", now: start.Add(time.Hour), want: AuctionActive},
		{name: "at end", now: end, want: AuctionEnded},
		{name: "after end", now: end.Add(time.Minute), want: AuctionEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.AuctionStatusAt(tt.now))
			assert.Equal(t, tt.want == AuctionActive, p.IsAuctionActiveAt(tt.now))
		})
	}

	p.AuctionEndDate = nil
	assert.Equal(t, AuctionUnscheduled, p.AuctionStatusAt(start.Add(time.Hour)))
	assert.False(t, p.IsAuctionActiveAt(start.Add(time.Hour)))
}

func TestProductValidate(t *testing.T) {
	now := time.Now()

	valid := auctionProduct(now, now.Add(time.Hour))
	assert.NoError(t, valid.Validate())

	negIncrement := auctionProduct(now, now.Add(time.Hour))
	negIncrement.MinimumBidIncrement = dec(-1)
	assert.Error(t, negIncrement.Validate())

	negStart := auctionProduct(now, now.Add(time.Hour))
	negStart.StartingBid = dec(-5)
	assert.Error(t, negStart.Validate())

	negStock := &Product{ID: 2, Price: dec(10), Stock: -1}
	assert.Error(t, negStock.Validate())

	plain := &Product{ID: 3, Price: dec(10), Stock: 4, StartingBid: dec(-1)}
	assert.NoError(t, plain.Validate(), "auction fields are ignored for regular products")
}

func TestWinningBidAndDisplayOrder(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bids := []Bid{
		{ID: 1, Amount: dec(1100), CreatedAt: t0},
		{ID: 2, Amount: dec(1300), CreatedAt: t0.Add(2 * time.Minute)},
		{ID: 3, Amount: dec(1300), CreatedAt: t0.Add(3 * time.Minute)},
		{ID: 4, Amount: dec(1200), CreatedAt: t0.Add(time.Minute)},
	}

	winner := WinningBid(bids)
	require.NotNil(t, winner)
	assert.Equal(t, int64(2), winner.ID)

	SortBidsForDisplay(bids)
	ids := make([]int64, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []int64{3, 2, 4, 1}, ids)

	assert.Nil(t, WinningBid(nil))
}

func TestNewOrderTotals(t *testing.T) {
	p := &Product{ID: 1, Name: "Phone", Price: dec(100), Stock: 5}
	q := &Product{ID: 2, Name: "Case", Price: decimal.RequireFromString("12.50"), Stock: 5}

	items := []OrderItem{NewOrderItem(p, 3), NewOrderItem(q, 2)}
	buyer := NewIdentity("uid-1", "", "a@b.c", "")
	addr := Address{Name: "Ali", Address: "Street 1", City: "Baghdad", Phone: "0770"}

	o := NewOrder("ORD-1", buyer, addr, items, dec(10), dec(335), time.Now())

	assert.True(t, o.Items[0].Total.Equal(dec(300)))
	assert.True(t, o.Items[1].Total.Equal(dec(25)))
	assert.True(t, o.Subtotal.Equal(dec(325)))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.Shipping).Sub(o.Discount)))
	assert.True(t, o.Total.Equal(dec(335)))
	assert.Equal(t, "Ali", o.CustomerName)
	assert.Equal(t, "0770", o.CustomerPhone)
	assert.Equal(t, OrderStatusProcessing, o.Status)
}

func TestCustomerRecordOrder(t *testing.T) {
	c := NewCustomer(NewIdentity("user-1", "Sara", "sara@example.com", "0770"))
	assert.Equal(t, "user-1", c.ID)
	assert.True(t, c.TotalSpent.IsZero())
	assert.Nil(t, c.LastOrderAt)

	first := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	c.RecordOrder(dec(310), first)
	c.RecordOrder(dec(90), first.Add(-time.Hour))

	assert.True(t, c.TotalSpent.Equal(dec(400)))
	assert.Equal(t, 2, c.TotalOrders)
	require.NotNil(t, c.LastOrderAt)
	assert.Equal(t, first, *c.LastOrderAt)
}
