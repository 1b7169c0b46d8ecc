package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bidNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newAuction(id int64) *domain.Product {
	start := bidNow.Add(-time.Hour)
	end := bidNow.Add(time.Hour)

	return &domain.Product{
		ID:                  id,
		Name:                "Vintage watch",
		Price:               d("0"),
		IsActive:            true,
		IsAuction:           true,
		StartingBid:         d("1000"),
		MinimumBidIncrement: d("100"),
		AuctionStartDate:    &start,
		AuctionEndDate:      &end,
	}
}

func newBidUCForTest(store *memStore, cache *memCache) *BidUseCase {
	uc := NewBidUC(store, store, memBids{store}, memOutbox{store}, cache, logger.NewNop())
	uc.now = fixedClock(bidNow)
	return uc
}

var bidder = domain.NewIdentity("user-1", "Ali", "ali@example.com", "0770")

func TestPlaceBidMinimumIncrement(t *testing.T) {
	store := newMemStore(newAuction(1))
	cache := newMemCache()
	uc := newBidUCForTest(store, cache)
	ctx := context.Background()

	_, err := uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d("1050")))
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrBidTooLow)

	var tooLow *e.BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.True(t, tooLow.Minimum.Equal(d("1100")))
	assert.Equal(t, 0, store.bidCount())
	assert.Nil(t, store.product(1).CurrentBid)

	res, err := uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d("1100")))
	require.NoError(t, err)
	require.NotNil(t, res.Product.CurrentBid)
	assert.True(t, res.Product.CurrentBid.Equal(d("1100")))
	assert.Equal(t, 1, res.Product.BidCount)
	assert.Equal(t, "user-1", res.Bid.BidderID)
	assert.Equal(t, "Ali", res.Bid.BidderName)
	assert.Equal(t, bidNow, res.Bid.CreatedAt)

	stored := store.product(1)
	require.NotNil(t, stored.CurrentBid)
	assert.True(t, stored.CurrentBid.Equal(d("1100")))
	assert.Equal(t, 1, store.bidCount())
	assert.Contains(t, cache.deletedIDs(), int64(1))

	events := store.outboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventBidPlaced, events[0].EventType)
	assert.Equal(t, "1", events[0].AggregateID)

	var env map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &env))
	assert.Equal(t, string(EventBidPlaced), env["event_type"])
}

func TestPlaceBidRejections(t *testing.T) {
	tests := []struct {
		name    string
		product func() *domain.Product
		amount  string
		wantErr error
	}{
		{
			name:    "not positive",
			product: func() *domain.Product { return newAuction(1) },
			amount:  "0",
			wantErr: e.ErrInvalidBidAmount,
		},
		{
			name:    "more than two decimal places",
			product: func() *domain.Product { return newAuction(1) },
			amount:  "1150.555",
			wantErr: e.ErrInvalidBidAmount,
		},
		{
			name:    "rounds to zero",
			product: func() *domain.Product { return newAuction(1) },
			amount:  "0.001",
			wantErr: e.ErrInvalidBidAmount,
		},
		{
			name: "inactive product",
			product: func() *domain.Product {
				p := newAuction(1)
				p.IsActive = false
				return p
			},
			amount:  "5000",
			wantErr: e.ErrProductNotFound,
		},
		{
			name: "not an auction",
			product: func() *domain.Product {
				p := newAuction(1)
				p.IsAuction = false
				return p
			},
			amount:  "5000",
			wantErr: e.ErrAuctionNotActive,
		},
		{
			name: "auction ended",
			product: func() *domain.Product {
				p := newAuction(1)
				end := bidNow
				p.AuctionEndDate = &end
				return p
			},
			amount:  "5000",
			wantErr: e.ErrAuctionNotActive,
		},
		{
			name: "auction not started",
			product: func() *domain.Product {
				p := newAuction(1)
				start := bidNow.Add(time.Minute)
				p.AuctionStartDate = &start
				return p
			},
			amount:  "5000",
			wantErr: e.ErrAuctionNotActive,
		},
		{
			name: "window not scheduled",
			product: func() *domain.Product {
				p := newAuction(1)
				p.AuctionStartDate = nil
				return p
			},
			amount:  "5000",
			wantErr: e.ErrAuctionNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(tt.product())
			uc := newBidUCForTest(store, newMemCache())

			_, err := uc.PlaceBid(context.Background(), NewPlaceBidReq(1, bidder, d(tt.amount)))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, store.bidCount())
			assert.Empty(t, store.outboxEvents())
			assert.Nil(t, store.product(1).CurrentBid)
		})
	}

	t.Run("unknown product", func(t *testing.T) {
		uc := newBidUCForTest(newMemStore(), newMemCache())
		_, err := uc.PlaceBid(context.Background(), NewPlaceBidReq(42, bidder, d("5000")))
		assert.ErrorIs(t, err, e.ErrProductNotFound)
	})
}

func TestPlaceBidSubCentRaiseDoesNotDuplicateStoredBid(t *testing.T) {
	p := newAuction(1)
	p.MinimumBidIncrement = d("0")
	store := newMemStore(p)
	uc := newBidUCForTest(store, newMemCache())
	ctx := context.Background()

	_, err := uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d("1100")))
	require.NoError(t, err)

	_, err = uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d("1100.004")))
	assert.ErrorIs(t, err, e.ErrInvalidBidAmount)
	assert.Equal(t, 1, store.bidCount())
	assert.True(t, store.product(1).CurrentBid.Equal(d("1100")))
}

func TestPlaceBidCurrentBidTracksMaximum(t *testing.T) {
	store := newMemStore(newAuction(1))
	uc := newBidUCForTest(store, newMemCache())
	ctx := context.Background()

	amounts := []string{"1100", "1250", "1400", "2000"}
	for _, a := range amounts {
		before := store.product(1)
		minimum := before.MinimumAcceptableBid()

		res, err := uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d(a)))
		require.NoError(t, err)
		assert.True(t, res.Bid.Amount.GreaterThanOrEqual(minimum))
	}

	p := store.product(1)
	require.NotNil(t, p.CurrentBid)
	assert.True(t, p.CurrentBid.Equal(d("2000")))
	assert.Equal(t, len(amounts), p.BidCount)
	assert.Len(t, store.outboxEvents(), len(amounts))

	_, err := uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d("2050")))
	assert.ErrorIs(t, err, e.ErrBidTooLow)
	assert.Equal(t, len(amounts), store.bidCount())
}

func TestPlaceBidCommitFailureLeavesNoBid(t *testing.T) {
	store := newMemStore(newAuction(1))
	store.commitErr = errors.New("connection reset")
	cache := newMemCache()
	uc := newBidUCForTest(store, cache)

	_, err := uc.PlaceBid(context.Background(), NewPlaceBidReq(1, bidder, d("1100")))
	require.Error(t, err)
	assert.Equal(t, 0, store.bidCount())
	assert.Nil(t, store.product(1).CurrentBid)
	assert.Empty(t, cache.deletedIDs())
}

func raceBids(t *testing.T, amounts ...string) (*memStore, []error) {
	t.Helper()

	p := newAuction(1)
	current := d("1100")
	p.CurrentBid = &current
	p.BidCount = 1

	store := newMemStore(p)
	uc := newBidUCForTest(store, newMemCache())

	errs := make([]error, len(amounts))
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i, a := range amounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = uc.PlaceBid(context.Background(), NewPlaceBidReq(1, bidder, d(a)))
		}()
	}
	close(start)
	wg.Wait()

	return store, errs
}

func TestPlaceBidConcurrentBidsSerialize(t *testing.T) {
	t.Run("1200 and 1150", func(t *testing.T) {
		store, errs := raceBids(t, "1200", "1150")

		require.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], e.ErrBidTooLow)

		final := store.product(1)
		require.NotNil(t, final.CurrentBid)
		assert.True(t, final.CurrentBid.Equal(d("1200")))
		assert.Equal(t, 2, final.BidCount)
		assert.Equal(t, 1, store.bidCount())
	})

	t.Run("both valid against the initial state", func(t *testing.T) {
		store, errs := raceBids(t, "1200", "1250")

		accepted := 0
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			assert.ErrorIs(t, err, e.ErrBidTooLow)
		}
		assert.Equal(t, 1, accepted)
		assert.Equal(t, 1, store.bidCount())

		final := store.product(1)
		require.NotNil(t, final.CurrentBid)
		if errs[0] == nil {
			assert.True(t, final.CurrentBid.Equal(d("1200")))
		} else {
			assert.True(t, final.CurrentBid.Equal(d("1250")))
		}
	})
}

func TestPlaceBidRacingEqualBids(t *testing.T) {
	store := newMemStore(newAuction(1))
	uc := newBidUCForTest(store, newMemCache())

	const racers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		tooLow   int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.PlaceBid(context.Background(), NewPlaceBidReq(1, bidder, d("1500")))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, e.ErrBidTooLow):
				tooLow++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, racers-1, tooLow)
	assert.Equal(t, 1, store.bidCount())
}

func TestListBids(t *testing.T) {
	store := newMemStore(newAuction(1))
	uc := newBidUCForTest(store, newMemCache())
	ctx := context.Background()

	for i, a := range []string{"1100", "1300"} {
		uc.now = fixedClock(bidNow.Add(time.Duration(i) * time.Minute))
		_, err := uc.PlaceBid(ctx, NewPlaceBidReq(1, bidder, d(a)))
		require.NoError(t, err)
	}

	bids, err := uc.ListBids(ctx, NewListBidsReq(1, 0))
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Amount.Equal(d("1300")))
	assert.True(t, bids[1].Amount.Equal(d("1100")))

	_, err = uc.ListBids(ctx, NewListBidsReq(99, 10))
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	store.products[1].IsActive = false
	_, err = uc.ListBids(ctx, NewListBidsReq(1, 10))
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestListAuctions(t *testing.T) {
	active := newAuction(1)
	upcoming := newAuction(2)
	us := bidNow.Add(time.Hour)
	ue := bidNow.Add(2 * time.Hour)
	upcoming.AuctionStartDate, upcoming.AuctionEndDate = &us, &ue
	ended := newAuction(3)
	es := bidNow.Add(-2 * time.Hour)
	ee := bidNow.Add(-time.Hour)
	ended.AuctionStartDate, ended.AuctionEndDate = &es, &ee

	store := newMemStore(active, upcoming, ended)
	uc := newBidUCForTest(store, newMemCache())
	ctx := context.Background()

	tests := []struct {
		status domain.AuctionStatus
		wantID int64
	}{
		{status: "", wantID: 1},
		{status: domain.AuctionActive, wantID: 1},
		{status: domain.AuctionUpcoming, wantID: 2},
		{status: domain.AuctionEnded, wantID: 3},
	}
	for _, tt := range tests {
		res, err := uc.ListAuctions(ctx, NewListAuctionsReq(tt.status, 1, 10))
		require.NoError(t, err)
		require.Len(t, res.Products, 1)
		assert.Equal(t, tt.wantID, res.Products[0].ID)
		assert.Equal(t, 1, res.TotalPages)
	}

	_, err := uc.ListAuctions(ctx, NewListAuctionsReq("sold", 1, 10))
	assert.ErrorIs(t, err, e.ErrInvalidQuery)
}
