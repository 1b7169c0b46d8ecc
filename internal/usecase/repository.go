package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
)

// Transactor выполняет fn в одной транзакции хранилища. Репозитории,
// вызванные с переданным контекстом, работают внутри этой транзакции.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	// GetForUpdate читает товар с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	// GetManyForUpdate блокирует найденные товары в порядке возрастания id.
	GetManyForUpdate(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	List(ctx context.Context, filter *ProductFilter) ([]domain.Product, int, error)
	DecrementStock(ctx context.Context, id int64, quantity int) error
	ApplyBid(ctx context.Context, id int64, amount decimal.Decimal) error
}

type BidRepository interface {
	Create(ctx context.Context, bid *domain.Bid) (*domain.Bid, error)
	ListByProduct(ctx context.Context, productID int64, limit int) ([]domain.Bid, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type BrandRepository interface {
	List(ctx context.Context) ([]domain.Brand, error)
}

// CustomerRepository хранит профили покупателей. GetByID возвращает ErrCustomerNotFound,
// если покупатель ещё не сохранял профиль и не оформлял заказов.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// SaveProfile создаёт или обновляет контактные данные, статистика не меняется.
	SaveProfile(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	// RecordOrder учитывает заказ в статистике покупателя в текущей транзакции.
	RecordOrder(ctx context.Context, order *domain.Order) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64, reason string) error
}

// CacheRepository: кэш карточек товаров. GetProduct возвращает nil без ошибки при промахе.
type CacheRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	InvalidateProducts(ctx context.Context, ids []int64) error
}

// IdempotencyRepository хранит соответствие ключа идемпотентности и созданного заказа.
type IdempotencyRepository interface {
	GetOrderID(ctx context.Context, customerID, key string) (string, bool, error)
	SaveOrderID(ctx context.Context, customerID, key, orderID string) error
}

// ObjectRepository: хранилище документов (архив заказов).
type ObjectRepository interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
