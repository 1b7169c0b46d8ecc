package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

// OrderUseCase проверяет корзину по актуальным данным каталога и оформляет заказ.
type OrderUseCase struct {
	tx           Transactor
	productRepo  ProductRepository
	orderRepo    OrderRepository
	outboxRepo   OutboxRepository
	customerRepo CustomerRepository
	cacheRepo    CacheRepository
	idemRepo     IdempotencyRepository
	archive      OrderArchive
	ids          OrderIDGenerator
	policy       CheckoutPolicy
	logger       logger.Logger
	now          func() time.Time
}

func NewOrderUC(
	tx Transactor,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	customerRepo CustomerRepository,
	cacheRepo CacheRepository,
	idemRepo IdempotencyRepository,
	archive OrderArchive,
	ids OrderIDGenerator,
	policy CheckoutPolicy,
	logger logger.Logger,
) *OrderUseCase {
	if policy.Total == "" {
		policy.Total = TotalPolicyAudit
	}

	return &OrderUseCase{
		tx:           tx,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		outboxRepo:   outboxRepo,
		customerRepo: customerRepo,
		cacheRepo:    cacheRepo,
		idemRepo:     idemRepo,
		archive:      archive,
		ids:          ids,
		policy:       policy,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateOrder оформляет заказ. Цены и остатки берутся только из хранилища,
// клиентские значения используются для сверки. Любая ошибка проверки отменяет
// заказ целиком без изменения остатков.
func (o *OrderUseCase) CreateOrder(ctx context.Context, req *CreateOrderReq) (*CreateOrderRes, error) {
	const op = "OrderUseCase.CreateOrder"

	if err := validateCreateOrderReq(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	if res := o.replayOrder(ctx, req); res != nil {
		return res, nil
	}

	var (
		order   *domain.Order
		verdict TotalVerdict
		fnErr   error
	)
	err := o.tx.Do(ctx, func(ctx context.Context) error {
		order, verdict, fnErr = o.createOrderTx(ctx, req)
		return fnErr
	})
	if err != nil {
		// Параллельный повтор с тем же ключом успел зафиксировать заказ первым
		if errors.Is(err, e.ErrDuplicateIdempotencyKey) {
			if res := o.replayOrder(ctx, req); res != nil {
				return res, nil
			}
		}

		// Ошибки начала/фиксации транзакции и конфликты блокировок означают, что заказ не сохранён
		if fnErr == nil || errors.Is(err, e.ErrTxConflict) {
			err = commitFailed(err)
		}
		return nil, e.Wrap(op, err)
	}

	o.afterCommit(ctx, req, order, verdict)

	o.logger.Infof("Order created: order_id=%s, customer_id=%s, total=%s", order.ID, order.CustomerID, order.Total)
	return NewCreateOrderRes(order, false), nil
}

// createOrderTx выполняется внутри транзакции: блокирует товары, проверяет позиции и сохраняет заказ.
func (o *OrderUseCase) createOrderTx(ctx context.Context, req *CreateOrderReq) (*domain.Order, TotalVerdict, error) {
	products, err := o.productRepo.GetManyForUpdate(ctx, cartProductIDs(req.Items))
	if err != nil {
		return nil, TotalVerdict{}, err
	}

	items, quantities, err := buildOrderItems(req.Items, products)
	if err != nil {
		return nil, TotalVerdict{}, err
	}

	now := o.now()
	order := domain.NewOrder(o.ids.NextOrderID(), req.Buyer, req.Shipping, items, req.ShippingCost, req.ClientTotal, now)
	order.IdempotencyKey = req.IdempotencyKey

	verdict := o.reconcileTotal(order)
	if !verdict.Matched {
		if o.policy.Total == TotalPolicyReject {
			return nil, verdict, &e.TotalMismatchError{ServerTotal: order.Total, ClientTotal: order.ClientTotal}
		}

		o.logger.Warnf("Client total differs from server total: order_id=%s, server_total=%s, client_total=%s",
			order.ID, order.Total, order.ClientTotal)
	}

	if err := o.orderRepo.Create(ctx, order); err != nil {
		return nil, verdict, commitFailed(err)
	}

	for _, id := range sortedKeys(quantities) {
		if err := o.productRepo.DecrementStock(ctx, id, quantities[id]); err != nil {
			return nil, verdict, commitFailed(err)
		}
	}

	event, err := newOutboxEvent(EventOrderCreated, order.ID, newOrderCreatedPayload(order), now)
	if err != nil {
		return nil, verdict, commitFailed(err)
	}

	if _, err := o.outboxRepo.Create(ctx, event); err != nil {
		return nil, verdict, commitFailed(err)
	}

	if err := o.customerRepo.RecordOrder(ctx, order); err != nil {
		return nil, verdict, commitFailed(err)
	}

	return order, verdict, nil
}

// replayOrder возвращает ранее созданный заказ для повторного запроса с тем же ключом.
// Redis служит быстрым путём, источник истины: уникальный ключ в таблице заказов.
func (o *OrderUseCase) replayOrder(ctx context.Context, req *CreateOrderReq) *CreateOrderRes {
	const op = "OrderUseCase.replayOrder"

	if req.IdempotencyKey == "" {
		return nil
	}

	order := o.cachedReplay(ctx, req)
	if order == nil {
		var err error
		order, err = o.orderRepo.GetByIdempotencyKey(ctx, req.Buyer.Subject, req.IdempotencyKey)
		if err != nil {
			if !errors.Is(err, e.ErrOrderNotFound) {
				o.logger.Warnf("Failed to look up order by idempotency key: %v", e.Wrap(op, err))
			}
			return nil
		}

		if err := o.idemRepo.SaveOrderID(ctx, req.Buyer.Subject, req.IdempotencyKey, order.ID); err != nil {
			o.logger.Warnf("Failed to save idempotency key: %v", e.Wrap(op, err))
		}
	}

	o.logger.Infof("Order replayed by idempotency key: order_id=%s", order.ID)
	return NewCreateOrderRes(order, true)
}

// cachedReplay ищет заказ по ключу в Redis. Промах и ошибки кэша не прерывают оформление.
func (o *OrderUseCase) cachedReplay(ctx context.Context, req *CreateOrderReq) *domain.Order {
	const op = "OrderUseCase.cachedReplay"

	orderID, found, err := o.idemRepo.GetOrderID(ctx, req.Buyer.Subject, req.IdempotencyKey)
	if err != nil {
		o.logger.Warnf("Failed to read idempotency key: %v", e.Wrap(op, err))
		return nil
	}

	if !found {
		return nil
	}

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil || order.CustomerID != req.Buyer.Subject {
		o.logger.Warnf("Idempotency key points to unavailable order %s: %v", orderID, err)
		return nil
	}

	return order
}

// afterCommit выполняет необязательные шаги после фиксации. Их ошибки только логируются.
func (o *OrderUseCase) afterCommit(ctx context.Context, req *CreateOrderReq, order *domain.Order, verdict TotalVerdict) {
	const op = "OrderUseCase.afterCommit"

	ids := make([]int64, 0, len(order.Items))
	for _, it := range order.Items {
		ids = append(ids, it.ProductID)
	}

	if err := o.cacheRepo.InvalidateProducts(ctx, ids); err != nil {
		o.logger.Warnf("Failed to invalidate cached products: %v", e.Wrap(op, err))
	}

	if req.IdempotencyKey != "" {
		if err := o.idemRepo.SaveOrderID(ctx, req.Buyer.Subject, req.IdempotencyKey, order.ID); err != nil {
			o.logger.Warnf("Failed to save idempotency key: %v", e.Wrap(op, err))
		}
	}

	o.archive.ArchiveOrder(order, verdict)
}

// reconcileTotal сравнивает сумму клиента с серверной с учётом допуска.
func (o *OrderUseCase) reconcileTotal(order *domain.Order) TotalVerdict {
	diff := order.Total.Sub(order.ClientTotal).Abs()

	return TotalVerdict{
		Policy:      o.policy.Total,
		ServerTotal: order.Total,
		ClientTotal: order.ClientTotal,
		Difference:  diff,
		Matched:     diff.LessThanOrEqual(o.policy.Tolerance),
	}
}

// GetOrder возвращает заказ только его владельцу.
func (o *OrderUseCase) GetOrder(ctx context.Context, buyer domain.Identity, orderID string) (*domain.Order, error) {
	const op = "OrderUseCase.GetOrder"

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if order.CustomerID != buyer.Subject {
		return nil, e.Wrap(op, e.ErrOrderNotFound)
	}

	return order, nil
}

// ListOrders возвращает историю заказов покупателя, новые первыми.
func (o *OrderUseCase) ListOrders(ctx context.Context, req *ListOrdersReq) (*ListOrdersRes, error) {
	const op = "OrderUseCase.ListOrders"

	page, limit := normalizePage(req.Page, req.Limit, defaultPageLimit)
	orders, total, err := o.orderRepo.ListByCustomer(ctx, req.Buyer.Subject, limit, (page-1)*limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ListOrdersRes{
		Orders:      orders,
		TotalOrders: total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

// validateCreateOrderReq проверяет запрос до обращения к хранилищу.
func validateCreateOrderReq(req *CreateOrderReq) error {
	if len(req.Items) == 0 {
		return e.ErrEmptyCart
	}

	if req.ShippingCost.IsNegative() || !domain.IsStorableMoney(req.ShippingCost) {
		return e.ErrInvalidShippingCost
	}

	if req.ClientTotal.IsNegative() || !domain.IsStorableMoney(req.ClientTotal) {
		return e.ErrInvalidClientTotal
	}

	s := req.Shipping
	required := []struct{ field, value string }{
		{"name", s.Name},
		{"address", s.Address},
		{"city", s.City},
		{"phone", s.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return e.Wrap(r.field, e.ErrMissingShippingDetails)
		}
	}

	return nil
}

// buildOrderItems проверяет позиции в порядке корзины и возвращает снимки позиций
// и суммарное количество по каждому товару.
func buildOrderItems(cart []CartItem, products map[int64]*domain.Product) ([]domain.OrderItem, map[int64]int, error) {
	items := make([]domain.OrderItem, 0, len(cart))
	requested := make(map[int64]int, len(cart))

	for i, ci := range cart {
		if ci.Quantity <= 0 || ci.ClientPrice == nil {
			return nil, nil, e.Wrap(fmt.Sprintf("item %d", i), e.ErrInvalidLineItem)
		}

		// Снятый с продажи товар для покупателя не существует
		product, ok := products[ci.ProductID]
		if !ok || !product.IsActive {
			return nil, nil, &e.ProductNotFoundError{ProductID: ci.ProductID}
		}

		if !product.Price.Equal(*ci.ClientPrice) {
			return nil, nil, &e.PriceMismatchError{ProductID: product.ID, CorrectPrice: product.Price}
		}

		// Повторяющиеся позиции одного товара расходуют общий остаток
		available := product.Stock - requested[product.ID]
		if ci.Quantity > available {
			return nil, nil, &e.InsufficientStockError{ProductID: product.ID, Available: available}
		}

		requested[product.ID] += ci.Quantity
		items = append(items, domain.NewOrderItem(product, ci.Quantity))
	}

	return items, requested, nil
}

// cartProductIDs возвращает уникальные id товаров корзины по возрастанию.
func cartProductIDs(cart []CartItem) []int64 {
	seen := make(map[int64]int, len(cart))
	for _, ci := range cart {
		seen[ci.ProductID] = 0
	}

	return sortedKeys(seen)
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func commitFailed(err error) error {
	if errors.Is(err, e.ErrOrderCommitFailed) {
		return err
	}

	return fmt.Errorf("%w: %w", e.ErrOrderCommitFailed, err)
}
