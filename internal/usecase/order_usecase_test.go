package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

var buyer = domain.NewIdentity("buyer-1", "Sara", "sara@example.com", "")

var shipping = domain.Address{
	Name:    "Sara",
	Address: "Karrada, street 52",
	City:    "Baghdad",
	Country: "IQ",
	Phone:   "07701234567",
}

func newProduct(id int64, price string, stock int) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     "Product",
		Price:    d(price),
		Stock:    stock,
		IsActive: true,
	}
}

type orderFixture struct {
	store   *memStore
	cache   *memCache
	archive *fakeArchive
	uc      *OrderUseCase
}

func newOrderFixture(policy CheckoutPolicy, products ...*domain.Product) *orderFixture {
	store := newMemStore(products...)
	cache := newMemCache()
	archive := &fakeArchive{}
	uc := NewOrderUC(store, store, memOrders{store}, memOutbox{store}, memCustomers{store}, cache, cache,
		archive, &seqIDs{}, policy, logger.NewNop())
	uc.now = fixedClock(orderNow)

	return &orderFixture{store: store, cache: cache, archive: archive, uc: uc}
}

func orderReq(items []CartItem, shippingCost, clientTotal string) *CreateOrderReq {
	return NewCreateOrderReq(buyer, shipping, items, d(shippingCost), d(clientTotal), "")
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5))

	res, err := f.uc.CreateOrder(context.Background(),
		orderReq([]CartItem{NewCartItem(1, dp("100"), 3)}, "10", "310"))
	require.NoError(t, err)

	order := res.Order
	assert.Equal(t, "ORD-1", res.OrderID)
	assert.False(t, res.Replayed)
	assert.True(t, order.Subtotal.Equal(d("300")))
	assert.True(t, order.Total.Equal(d("310")))
	assert.True(t, order.Discount.IsZero())
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, domain.PaymentCashOnDelivery, order.PaymentMethod)
	assert.Equal(t, "buyer-1", order.CustomerID)
	assert.Equal(t, orderNow, order.CreatedAt)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Total.Equal(d("300")))

	assert.Equal(t, 2, f.store.product(1).Stock)
	assert.Equal(t, 1, f.store.orderCount())
	assert.Contains(t, f.cache.deletedIDs(), int64(1))

	events := f.store.outboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderCreated, events[0].EventType)
	assert.Equal(t, "ORD-1", events[0].AggregateID)

	verdict, ok := f.archive.verdicts["ORD-1"]
	require.True(t, ok)
	assert.True(t, verdict.Matched)
}

func TestCreateOrderTotalsInvariant(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{},
		newProduct(1, "19.99", 10),
		newProduct(2, "5.50", 10),
		newProduct(3, "250", 1),
	)

	items := []CartItem{
		NewCartItem(1, dp("19.99"), 3),
		NewCartItem(2, dp("5.50"), 4),
		NewCartItem(3, dp("250"), 1),
	}
	res, err := f.uc.CreateOrder(context.Background(), orderReq(items, "7.25", "0"))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, it := range res.Order.Items {
		assert.True(t, it.Total.Equal(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))))
		sum = sum.Add(it.Total)
	}
	assert.True(t, res.Order.Subtotal.Equal(sum))
	assert.True(t, res.Order.Subtotal.Equal(d("331.97")))
	assert.True(t, res.Order.Total.Equal(res.Order.Subtotal.Add(res.Order.Shipping)))
	assert.True(t, res.Order.Total.Equal(d("339.22")))

	assert.Equal(t, 7, f.store.product(1).Stock)
	assert.Equal(t, 6, f.store.product(2).Stock)
	assert.Equal(t, 0, f.store.product(3).Stock)
}

func TestCreateOrderRejectsWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		items   []CartItem
		wantErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "price mismatch",
			items:   []CartItem{NewCartItem(1, dp("90"), 3)},
			wantErr: e.ErrPriceMismatch,
			check: func(t *testing.T, err error) {
				var pm *e.PriceMismatchError
				require.ErrorAs(t, err, &pm)
				assert.Equal(t, int64(1), pm.ProductID)
				assert.True(t, pm.CorrectPrice.Equal(d("100")))
			},
		},
		{
			name: "price mismatch on a later item keeps earlier items untouched",
			items: []CartItem{
				NewCartItem(1, dp("100"), 1),
				NewCartItem(2, dp("49"), 1),
			},
			wantErr: e.ErrPriceMismatch,
		},
		{
			name:    "insufficient stock",
			items:   []CartItem{NewCartItem(1, dp("100"), 6)},
			wantErr: e.ErrInsufficientStock,
			check: func(t *testing.T, err error) {
				var is *e.InsufficientStockError
				require.ErrorAs(t, err, &is)
				assert.Equal(t, 5, is.Available)
			},
		},
		{
			name: "duplicate lines exceed stock together",
			items: []CartItem{
				NewCartItem(1, dp("100"), 3),
				NewCartItem(1, dp("100"), 3),
			},
			wantErr: e.ErrInsufficientStock,
			check: func(t *testing.T, err error) {
				var is *e.InsufficientStockError
				require.ErrorAs(t, err, &is)
				assert.Equal(t, 2, is.Available)
			},
		},
		{
			name:    "unknown product",
			items:   []CartItem{NewCartItem(1, dp("100"), 1), NewCartItem(77, dp("1"), 1)},
			wantErr: e.ErrProductNotFound,
			check: func(t *testing.T, err error) {
				var nf *e.ProductNotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, int64(77), nf.ProductID)
			},
		},
		{
			name:    "inactive product",
			items:   []CartItem{NewCartItem(3, dp("100"), 2)},
			wantErr: e.ErrProductNotFound,
			check: func(t *testing.T, err error) {
				var nf *e.ProductNotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, int64(3), nf.ProductID)
			},
		},
		{
			name:    "zero quantity",
			items:   []CartItem{NewCartItem(1, dp("100"), 0)},
			wantErr: e.ErrInvalidLineItem,
		},
		{
			name:    "non numeric client price",
			items:   []CartItem{NewCartItem(1, nil, 1)},
			wantErr: e.ErrInvalidLineItem,
		},
		{
			name:    "first failing item in submission order wins",
			items:   []CartItem{NewCartItem(2, dp("1"), 1), NewCartItem(1, dp("100"), 99)},
			wantErr: e.ErrPriceMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inactive := newProduct(3, "100", 5)
			inactive.IsActive = false
			f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5), newProduct(2, "50", 5), inactive)

			_, err := f.uc.CreateOrder(context.Background(), orderReq(tt.items, "10", "0"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.check != nil {
				tt.check(t, err)
			}

			assert.Equal(t, 5, f.store.product(1).Stock)
			assert.Equal(t, 5, f.store.product(2).Stock)
			assert.Equal(t, 5, f.store.product(3).Stock)
			assert.Equal(t, 0, f.store.orderCount())
			assert.Empty(t, f.store.outboxEvents())
			assert.Empty(t, f.archive.verdicts)
		})
	}
}

func TestCreateOrderRequestValidation(t *testing.T) {
	valid := []CartItem{NewCartItem(1, dp("100"), 1)}

	tests := []struct {
		name    string
		req     func() *CreateOrderReq
		wantErr error
	}{
		{
			name:    "empty cart",
			req:     func() *CreateOrderReq { return orderReq(nil, "0", "0") },
			wantErr: e.ErrEmptyCart,
		},
		{
			name:    "negative shipping",
			req:     func() *CreateOrderReq { return orderReq(valid, "-1", "0") },
			wantErr: e.ErrInvalidShippingCost,
		},
		{
			name:    "negative client total",
			req:     func() *CreateOrderReq { return orderReq(valid, "0", "-5") },
			wantErr: e.ErrInvalidClientTotal,
		},
		{
			name:    "shipping with sub-cent precision",
			req:     func() *CreateOrderReq { return orderReq(valid, "10.005", "110.01") },
			wantErr: e.ErrInvalidShippingCost,
		},
		{
			name:    "client total with sub-cent precision",
			req:     func() *CreateOrderReq { return orderReq(valid, "0", "100.001") },
			wantErr: e.ErrInvalidClientTotal,
		},
		{
			name: "missing city",
			req: func() *CreateOrderReq {
				r := orderReq(valid, "0", "0")
				r.Shipping.City = "  "
				return r
			},
			wantErr: e.ErrMissingShippingDetails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5))
			_, err := f.uc.CreateOrder(context.Background(), tt.req())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 5, f.store.product(1).Stock)
		})
	}
}

func TestCreateOrderTotalPolicy(t *testing.T) {
	items := []CartItem{NewCartItem(1, dp("100"), 3)}

	t.Run("audit keeps the client total for the record", func(t *testing.T) {
		f := newOrderFixture(CheckoutPolicy{Total: TotalPolicyAudit}, newProduct(1, "100", 5))

		res, err := f.uc.CreateOrder(context.Background(), orderReq(items, "10", "250"))
		require.NoError(t, err)
		assert.True(t, res.Order.Total.Equal(d("310")))
		assert.True(t, res.Order.ClientTotal.Equal(d("250")))

		verdict := f.archive.verdicts[res.OrderID]
		assert.False(t, verdict.Matched)
		assert.True(t, verdict.Difference.Equal(d("60")))
	})

	t.Run("reject fails on mismatch", func(t *testing.T) {
		f := newOrderFixture(CheckoutPolicy{Total: TotalPolicyReject}, newProduct(1, "100", 5))

		_, err := f.uc.CreateOrder(context.Background(), orderReq(items, "10", "250"))
		require.Error(t, err)

		var tm *e.TotalMismatchError
		require.ErrorAs(t, err, &tm)
		assert.True(t, tm.ServerTotal.Equal(d("310")))
		assert.Equal(t, 5, f.store.product(1).Stock)
	})

	t.Run("reject accepts a total inside the tolerance", func(t *testing.T) {
		f := newOrderFixture(CheckoutPolicy{Total: TotalPolicyReject, Tolerance: d("0.01")}, newProduct(1, "100", 5))

		_, err := f.uc.CreateOrder(context.Background(), orderReq(items, "10", "309.99"))
		require.NoError(t, err)
		assert.Equal(t, 2, f.store.product(1).Stock)
	})
}

func TestCreateOrderCommitFailures(t *testing.T) {
	items := []CartItem{NewCartItem(1, dp("100"), 2)}

	tests := []struct {
		name  string
		setup func(s *memStore)
	}{
		{name: "order insert fails", setup: func(s *memStore) { s.orderCreateErr = errors.New("disk full") }},
		{name: "stock update fails", setup: func(s *memStore) { s.decrementErr = errors.New("constraint") }},
		{name: "customer stats update fails", setup: func(s *memStore) { s.recordErr = errors.New("deadlock") }},
		{name: "commit fails", setup: func(s *memStore) { s.commitErr = errors.New("connection reset") }},
		{name: "commit conflict", setup: func(s *memStore) { s.commitErr = e.Wrap("commit", e.ErrTxConflict) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5))
			tt.setup(f.store)

			_, err := f.uc.CreateOrder(context.Background(), orderReq(items, "0", "200"))
			assert.ErrorIs(t, err, e.ErrOrderCommitFailed)
			assert.Equal(t, 5, f.store.product(1).Stock)
			assert.Equal(t, 0, f.store.orderCount())
			assert.Empty(t, f.store.outboxEvents())
			_, ok := f.store.customer(buyer.Subject)
			assert.False(t, ok)
		})
	}
}

func TestCreateOrderUpdatesCustomerStats(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 10))
	ctx := context.Background()

	_, err := f.uc.CreateOrder(ctx, orderReq([]CartItem{NewCartItem(1, dp("100"), 3)}, "10", "310"))
	require.NoError(t, err)

	later := orderNow.Add(time.Hour)
	f.uc.now = fixedClock(later)
	_, err = f.uc.CreateOrder(ctx, orderReq([]CartItem{NewCartItem(1, dp("100"), 1)}, "0", "100"))
	require.NoError(t, err)

	customer, ok := f.store.customer(buyer.Subject)
	require.True(t, ok)
	assert.True(t, customer.TotalSpent.Equal(d("410")))
	assert.Equal(t, 2, customer.TotalOrders)
	require.NotNil(t, customer.LastOrderAt)
	assert.Equal(t, later, *customer.LastOrderAt)
	assert.Equal(t, "Sara", customer.Name)

	_, err = f.uc.CreateOrder(ctx, orderReq([]CartItem{NewCartItem(1, dp("100"), 50)}, "0", "5000"))
	require.ErrorIs(t, err, e.ErrInsufficientStock)

	customer, _ = f.store.customer(buyer.Subject)
	assert.Equal(t, 2, customer.TotalOrders)
}

func TestCreateOrderIdempotency(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5))
	ctx := context.Background()

	req := orderReq([]CartItem{NewCartItem(1, dp("100"), 1)}, "0", "100")
	req.IdempotencyKey = "checkout-abc"

	first, err := f.uc.CreateOrder(ctx, req)
	require.NoError(t, err)

	second, err := f.uc.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 4, f.store.product(1).Stock)
	assert.Equal(t, 1, f.store.orderCount())

	other := *req
	other.Buyer = domain.NewIdentity("buyer-2", "", "", "")
	third, err := f.uc.CreateOrder(ctx, &other)
	require.NoError(t, err)
	assert.False(t, third.Replayed)
	assert.Equal(t, 3, f.store.product(1).Stock)
}

// racingOrders задерживает первые два поиска по ключу, пока оба запроса не пройдут проверку повтора.
type racingOrders struct {
	memOrders
	calls   atomic.Int32
	arrived sync.WaitGroup
}

func (r *racingOrders) GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.Order, error) {
	order, err := r.memOrders.GetByIdempotencyKey(ctx, customerID, key)
	if r.calls.Add(1) <= 2 {
		r.arrived.Done()
		r.arrived.Wait()
	}

	return order, err
}

func TestCreateOrderConcurrentRetriesCreateOneOrder(t *testing.T) {
	store := newMemStore(newProduct(1, "100", 5))
	cache := newMemCache()
	orders := &racingOrders{memOrders: memOrders{store}}
	orders.arrived.Add(2)

	uc := NewOrderUC(store, store, orders, memOutbox{store}, memCustomers{store}, cache, cache, &fakeArchive{}, &seqIDs{},
		CheckoutPolicy{}, logger.NewNop())
	uc.now = fixedClock(orderNow)

	req := orderReq([]CartItem{NewCartItem(1, dp("100"), 1)}, "0", "100")
	req.IdempotencyKey = "checkout-abc"

	var (
		wg      sync.WaitGroup
		results [2]*CreateOrderRes
		errs    [2]error
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := *req
			results[i], errs[i] = uc.CreateOrder(context.Background(), &r)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].OrderID, results[1].OrderID)
	assert.NotEqual(t, results[0].Replayed, results[1].Replayed)
	assert.Equal(t, 1, store.orderCount())
	assert.Equal(t, 4, store.product(1).Stock)
	assert.Len(t, store.outboxEvents(), 1)
}

func TestCreateOrderReplaysWhenIdempotencyCacheWriteFails(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5))
	f.cache.saveErr = errors.New("redis: connection refused")
	ctx := context.Background()

	req := orderReq([]CartItem{NewCartItem(1, dp("100"), 2)}, "0", "200")
	req.IdempotencyKey = "checkout-abc"

	first, err := f.uc.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "checkout-abc", first.Order.IdempotencyKey)

	second, err := f.uc.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, f.store.orderCount())
	assert.Equal(t, 3, f.store.product(1).Stock)
}

func TestCreateOrderStaleIdempotencyCacheFallsBackToStore(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 5))
	ctx := context.Background()

	req := orderReq([]CartItem{NewCartItem(1, dp("100"), 1)}, "0", "100")
	req.IdempotencyKey = "checkout-abc"

	first, err := f.uc.CreateOrder(ctx, req)
	require.NoError(t, err)

	require.NoError(t, f.cache.SaveOrderID(ctx, buyer.Subject, req.IdempotencyKey, "ORD-missing"))

	second, err := f.uc.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 4, f.store.product(1).Stock)
}

func TestGetAndListOrders(t *testing.T) {
	f := newOrderFixture(CheckoutPolicy{}, newProduct(1, "100", 10))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		f.uc.now = fixedClock(orderNow.Add(time.Duration(i) * time.Minute))
		res, err := f.uc.CreateOrder(ctx, orderReq([]CartItem{NewCartItem(1, dp("100"), 1)}, "0", "100"))
		require.NoError(t, err)
		ids = append(ids, res.OrderID)
	}

	order, err := f.uc.GetOrder(ctx, buyer, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], order.ID)

	_, err = f.uc.GetOrder(ctx, domain.NewIdentity("intruder", "", "", ""), ids[0])
	assert.ErrorIs(t, err, e.ErrOrderNotFound)

	_, err = f.uc.GetOrder(ctx, buyer, "ORD-missing")
	assert.ErrorIs(t, err, e.ErrOrderNotFound)

	list, err := f.uc.ListOrders(ctx, NewListOrdersReq(buyer, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, list.TotalOrders)
	assert.Equal(t, 2, list.TotalPages)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, ids[2], list.Orders[0].ID)
}
