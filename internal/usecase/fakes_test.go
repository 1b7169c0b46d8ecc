package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
)

// memStore: хранилище в памяти с транзакциями: Do сериализует транзакции
// и откатывает все изменения, если fn или фиксация завершились ошибкой.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products  map[int64]*domain.Product
	bids      []domain.Bid
	orders    map[string]*domain.Order
	outbox    []*OutboxEvent
	cats      []domain.Category
	brands    []domain.Brand
	customers map[string]*domain.Customer

	nextBidID    int64
	nextOutboxID int64

	commitErr      error
	orderCreateErr error
	decrementErr   error
	listErr        error
	recordErr      error
}

func newMemStore(products ...*domain.Product) *memStore {
	s := &memStore{
		products:  make(map[int64]*domain.Product),
		orders:    make(map[string]*domain.Order),
		customers: make(map[string]*domain.Customer),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	return s
}

type snapshot struct {
	products     map[int64]domain.Product
	bids         []domain.Bid
	orders       map[string]*domain.Order
	outbox       []*OutboxEvent
	customers    map[string]domain.Customer
	nextBidID    int64
	nextOutboxID int64
}

func (s *memStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		products:     make(map[int64]domain.Product, len(s.products)),
		bids:         append([]domain.Bid(nil), s.bids...),
		orders:       make(map[string]*domain.Order, len(s.orders)),
		outbox:       append([]*OutboxEvent(nil), s.outbox...),
		customers:    make(map[string]domain.Customer, len(s.customers)),
		nextBidID:    s.nextBidID,
		nextOutboxID: s.nextOutboxID,
	}
	for id, p := range s.products {
		snap.products[id] = *p
	}
	for id, o := range s.orders {
		snap.orders[id] = o
	}
	for id, c := range s.customers {
		snap.customers[id] = *c
	}

	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range snap.products {
		*s.products[id] = p
	}
	s.bids = snap.bids
	s.orders = snap.orders
	s.outbox = snap.outbox
	s.customers = make(map[string]*domain.Customer, len(snap.customers))
	for id, c := range snap.customers {
		cp := c
		s.customers[id] = &cp
	}
	s.nextBidID = snap.nextBidID
	s.nextOutboxID = snap.nextOutboxID
}

func (s *memStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}

	if s.commitErr != nil {
		s.restore(snap)
		return s.commitErr
	}

	return nil
}

func (s *memStore) product(id int64) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	return *s.products[id]
}

func (s *memStore) bidCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.bids)
}

func (s *memStore) outboxEvents() []*OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*OutboxEvent(nil), s.outbox...)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders)
}

// ProductRepository

func (s *memStore) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	cp := *p

	return &cp, nil
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}

	return nil, e.ErrProductNotFound
}

func (s *memStore) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return s.GetByID(ctx, id)
}

func (s *memStore) GetManyForUpdate(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			cp := *p
			res[id] = &cp
		}
	}

	return res, nil
}

func (s *memStore) List(_ context.Context, f *ProductFilter) ([]domain.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, 0, s.listErr
	}

	var matched []domain.Product
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		if f.OnlyAuctions && (!p.IsAuction || p.AuctionStatusAt(f.Now) != f.AuctionStatus) {
			continue
		}
		if f.InStock && p.Stock == 0 {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
			continue
		}
		if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
			continue
		}
		matched = append(matched, *p)
	}

	sort.Slice(matched, func(i, j int) bool {
		if f.Sort == SortPriceAsc {
			return matched[i].Price.LessThan(matched[j].Price)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if f.Offset >= total {
		return []domain.Product{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}

	return matched[f.Offset:end], total, nil
}

func (s *memStore) DecrementStock(_ context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decrementErr != nil {
		return s.decrementErr
	}

	p, ok := s.products[id]
	if !ok || p.Stock < quantity {
		return e.ErrInsufficientStock
	}
	p.Stock -= quantity

	return nil
}

func (s *memStore) ApplyBid(_ context.Context, id int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return e.ErrProductNotFound
	}
	p.ApplyBid(amount)

	return nil
}

// BidRepository

type memBids struct{ *memStore }

func (b memBids) Create(_ context.Context, bid *domain.Bid) (*domain.Bid, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextBidID++
	created := *bid
	created.ID = b.nextBidID
	b.bids = append(b.bids, created)

	return &created, nil
}

func (b memBids) ListByProduct(_ context.Context, productID int64, limit int) ([]domain.Bid, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res []domain.Bid
	for _, bid := range b.bids {
		if bid.ProductID == productID {
			res = append(res, bid)
		}
	}
	if len(res) > limit {
		res = res[len(res)-limit:]
	}

	return res, nil
}

// OrderRepository

type memOrders struct{ *memStore }

func (o memOrders) Create(_ context.Context, order *domain.Order) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.orderCreateErr != nil {
		return o.orderCreateErr
	}
	if order.IdempotencyKey != "" {
		for _, existing := range o.orders {
			if existing.CustomerID == order.CustomerID && existing.IdempotencyKey == order.IdempotencyKey {
				return e.ErrDuplicateIdempotencyKey
			}
		}
	}
	o.orders[order.ID] = order

	return nil
}

func (o memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	order, ok := o.orders[id]
	if !ok {
		return nil, e.ErrOrderNotFound
	}

	return order, nil
}

func (o memOrders) GetByIdempotencyKey(_ context.Context, customerID, key string) (*domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, order := range o.orders {
		if order.CustomerID == customerID && order.IdempotencyKey == key {
			return order, nil
		}
	}

	return nil, e.ErrOrderNotFound
}

func (o memOrders) ListByCustomer(_ context.Context, customerID string, limit, offset int) ([]domain.Order, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var res []domain.Order
	for _, order := range o.orders {
		if order.CustomerID == customerID {
			res = append(res, *order)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })

	total := len(res)
	if offset >= total {
		return []domain.Order{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return res[offset:end], total, nil
}

// OutboxRepository

type memOutbox struct{ *memStore }

func (o memOutbox) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextOutboxID++
	created := *event
	created.ID = o.nextOutboxID
	o.outbox = append(o.outbox, &created)

	return &created, nil
}

func (o memOutbox) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var res []*OutboxEvent
	for _, ev := range o.outbox {
		if ev.Status == Pending && len(res) < limit {
			ev.Status = Processing
			res = append(res, ev)
		}
	}

	return res, nil
}

func (o memOutbox) MarkAsFailed(_ context.Context, id int64, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, ev := range o.outbox {
		if ev.ID == id {
			ev.Status = Failed
		}
	}

	return nil
}

func (o memOutbox) MarkAsProcessed(_ context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, ev := range o.outbox {
		if ev.ID == id {
			ev.Status = Processed
		}
	}

	return nil
}

// CategoryRepository

type memCategories struct{ *memStore }

func (c memCategories) List(_ context.Context) ([]domain.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]domain.Category(nil), c.cats...), nil
}

// BrandRepository

type memBrands struct{ *memStore }

func (b memBrands) List(_ context.Context) ([]domain.Brand, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]domain.Brand(nil), b.brands...), nil
}

// CustomerRepository

type memCustomers struct{ *memStore }

func (c memCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	customer, ok := c.customers[id]
	if !ok {
		return nil, e.ErrCustomerNotFound
	}
	cp := *customer

	return &cp, nil
}

func (c memCustomers) SaveProfile(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.customers[customer.ID]
	if !ok {
		stored = domain.NewCustomer(domain.Identity{Subject: customer.ID})
		stored.JoinedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		c.customers[customer.ID] = stored
	}
	stored.Name = customer.Name
	stored.Email = customer.Email
	stored.Phone = customer.Phone
	stored.Address = customer.Address
	cp := *stored

	return &cp, nil
}

func (c memCustomers) RecordOrder(_ context.Context, order *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recordErr != nil {
		return c.recordErr
	}

	stored, ok := c.customers[order.CustomerID]
	if !ok {
		stored = domain.NewCustomer(domain.NewIdentity(order.CustomerID, order.CustomerName,
			order.CustomerEmail, order.CustomerPhone))
		stored.JoinedAt = order.CreatedAt
		c.customers[order.CustomerID] = stored
	}
	stored.RecordOrder(order.Total, order.CreatedAt)

	return nil
}

func (s *memStore) customer(id string) (domain.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, false
	}

	return *c, true
}

// memCache реализует CacheRepository и IdempotencyRepository.
type memCache struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	idem     map[string]string
	deleted  []int64
	getErr   error
	saveErr  error
	sets     chan struct{}
}

func newMemCache() *memCache {
	return &memCache{
		products: make(map[int64]domain.Product),
		idem:     make(map[string]string),
		sets:     make(chan struct{}, 16),
	}
}

func (c *memCache) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}

	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}

	return &p, nil
}

func (c *memCache) SetProduct(_ context.Context, product *domain.Product) error {
	c.mu.Lock()
	c.products[product.ID] = *product
	c.mu.Unlock()

	c.sets <- struct{}{}
	return nil
}

func (c *memCache) InvalidateProducts(_ context.Context, ids []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.products, id)
	}
	c.deleted = append(c.deleted, ids...)

	return nil
}

func (c *memCache) deletedIDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]int64(nil), c.deleted...)
}

func (c *memCache) GetOrderID(_ context.Context, customerID, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.idem[customerID+":"+key]
	return id, ok, nil
}

func (c *memCache) SaveOrderID(_ context.Context, customerID, key, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saveErr != nil {
		return c.saveErr
	}

	c.idem[customerID+":"+key] = orderID
	return nil
}

// fakeArchive запоминает заархивированные заказы.
type fakeArchive struct {
	mu       sync.Mutex
	verdicts map[string]TotalVerdict
}

func (a *fakeArchive) ArchiveOrder(order *domain.Order, verdict TotalVerdict) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.verdicts == nil {
		a.verdicts = make(map[string]TotalVerdict)
	}
	a.verdicts[order.ID] = verdict
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NextOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	return fmt.Sprintf("ORD-%d", s.n)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}
