package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
)

const maxProfileFieldLength = 200

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountUseCase ведёт профиль покупателя. Статистика заказов только читается.
type AccountUseCase struct {
	tx           Transactor
	customerRepo CustomerRepository
	logger       logger.Logger
}

func NewAccountUC(tx Transactor, customerRepo CustomerRepository, logger logger.Logger) *AccountUseCase {
	return &AccountUseCase{
		tx:           tx,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// GetAccount возвращает сохранённый профиль. Для нового покупателя профиль
// собирается из токена и не сохраняется.
func (a *AccountUseCase) GetAccount(ctx context.Context, buyer domain.Identity) (*domain.Customer, error) {
	const op = "AccountUseCase.GetAccount"

	customer, err := a.customerRepo.GetByID(ctx, buyer.Subject)
	if errors.Is(err, e.ErrCustomerNotFound) {
		return domain.NewCustomer(buyer), nil
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return customer, nil
}

// UpdateAccount сохраняет контактные данные покупателя.
func (a *AccountUseCase) UpdateAccount(ctx context.Context, req *UpdateAccountReq) (*domain.Customer, error) {
	const op = "AccountUseCase.UpdateAccount"

	if err := normalizeAccountReq(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var saved *domain.Customer
	err := a.tx.Do(ctx, func(ctx context.Context) error {
		customer, err := a.customerRepo.GetByID(ctx, req.Buyer.Subject)
		if errors.Is(err, e.ErrCustomerNotFound) {
			customer, err = domain.NewCustomer(req.Buyer), nil
		}
		if err != nil {
			return err
		}

		customer.Name = req.Name
		customer.Email = req.Email
		customer.Phone = req.Phone
		customer.Address = req.Address

		saved, err = a.customerRepo.SaveProfile(ctx, customer)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	a.logger.Infof("Customer profile updated: customer_id=%s", saved.ID)
	return saved, nil
}

// normalizeAccountReq обрезает пробелы и проверяет длину полей и формат почты.
func normalizeAccountReq(req *UpdateAccountReq) error {
	fields := []*string{
		&req.Name, &req.Email, &req.Phone,
		&req.Address.Street, &req.Address.City, &req.Address.Country, &req.Address.Full,
	}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
		if utf8.RuneCountInString(*f) > maxProfileFieldLength {
			return e.ErrInvalidAccountDetails
		}
	}

	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		return e.ErrInvalidEmail
	}

	return nil
}
