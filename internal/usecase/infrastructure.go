package usecase

import (
	"context"

	"github.com/spams12/gege/internal/domain"
)

// IdentityVerifier проверяет токен вызывающего и возвращает его личность.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// OrderArchive сохраняет аудиторскую копию заказа. Работает в фоне и не влияет на результат оформления.
type OrderArchive interface {
	ArchiveOrder(order *domain.Order, verdict TotalVerdict)
}

type OrderIDGenerator interface {
	NextOrderID() string
}
