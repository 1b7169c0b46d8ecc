package e

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")
	ErrTxConflict          = fmt.Errorf("transaction aborted due to concurrent update")

	// Внутренние ошибки хранилища
	ErrInvalidProductRecord = fmt.Errorf("invalid product record")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrInternalServerError  = fmt.Errorf("internal server error")

	// 401 Unauthorized
	ErrAuthenticationRequired = fmt.Errorf("authentication required")
	ErrAuthenticationInvalid  = fmt.Errorf("authentication invalid")

	// 404 Not Found
	ErrProductNotFound  = fmt.Errorf("product not found")
	ErrOrderNotFound    = fmt.Errorf("order not found")
	ErrCustomerNotFound = fmt.Errorf("customer not found")

	// 400 Bad Request: аукцион
	ErrAuctionNotActive = fmt.Errorf("auction is not active")
	ErrBidTooLow        = fmt.Errorf("bid is too low")
	ErrInvalidBidAmount = fmt.Errorf("bid amount must be positive with at most two decimal places")

	// 400 Bad Request: оформление заказа
	ErrEmptyCart              = fmt.Errorf("cart is empty")
	ErrInvalidLineItem        = fmt.Errorf("invalid line item")
	ErrPriceMismatch          = fmt.Errorf("price mismatch")
	ErrInsufficientStock      = fmt.Errorf("insufficient stock")
	ErrInvalidShippingCost    = fmt.Errorf("invalid shipping cost")
	ErrInvalidClientTotal     = fmt.Errorf("invalid client total")
	ErrMissingShippingDetails = fmt.Errorf("missing shipping details")
	ErrTotalMismatch          = fmt.Errorf("order total mismatch")

	// 400 Bad Request: профиль покупателя
	ErrInvalidEmail          = fmt.Errorf("invalid email")
	ErrInvalidAccountDetails = fmt.Errorf("invalid account details")

	// 400 Bad Request: разбор запроса
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrInvalidID        = fmt.Errorf("invalid id")
	ErrInvalidQuery     = fmt.Errorf("invalid query parameter")

	// 500: фиксация заказа
	ErrOrderCommitFailed = fmt.Errorf("order commit failed")

	// Заказ с таким ключом идемпотентности уже создан этим покупателем
	ErrDuplicateIdempotencyKey = fmt.Errorf("duplicate idempotency key")
)

// BidTooLowError сообщает минимально допустимую ставку, чтобы клиент мог повторить запрос.
type BidTooLowError struct {
	Minimum decimal.Decimal
}

func (b *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: minimum acceptable bid is %s", ErrBidTooLow, b.Minimum.String())
}

func (b *BidTooLowError) Unwrap() error { return ErrBidTooLow }

// PriceMismatchError содержит актуальную цену товара.
type PriceMismatchError struct {
	ProductID    int64
	CorrectPrice decimal.Decimal
}

func (p *PriceMismatchError) Error() string {
	return fmt.Sprintf("%s: product %d costs %s", ErrPriceMismatch, p.ProductID, p.CorrectPrice.String())
}

func (p *PriceMismatchError) Unwrap() error { return ErrPriceMismatch }

// InsufficientStockError содержит доступный остаток товара.
type InsufficientStockError struct {
	ProductID int64
	Available int
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: product %d has %d available", ErrInsufficientStock, i.ProductID, i.Available)
}

func (i *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ProductNotFoundError уточняет, какой именно товар из корзины не найден.
type ProductNotFoundError struct {
	ProductID int64
}

func (p *ProductNotFoundError) Error() string {
	return fmt.Sprintf("%s: %d", ErrProductNotFound, p.ProductID)
}

func (p *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// TotalMismatchError возвращается только при строгой политике сверки итоговой суммы.
type TotalMismatchError struct {
	ServerTotal decimal.Decimal
	ClientTotal decimal.Decimal
}

func (t *TotalMismatchError) Error() string {
	return fmt.Sprintf("%s: server total %s, client total %s", ErrTotalMismatch, t.ServerTotal.String(), t.ClientTotal.String())
}

func (t *TotalMismatchError) Unwrap() error { return ErrTotalMismatch }

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
