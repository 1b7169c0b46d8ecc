package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spams12/gege/pkg/e"
)

// GetOrderID возвращает заказ, уже созданный покупателем с этим ключом идемпотентности.
func (r *CacheRepo) GetOrderID(ctx context.Context, customerID, key string) (string, bool, error) {
	orderID, err := r.client.Client.Get(ctx, idemOrderKey(customerID, key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, e.Wrap(whereami.WhereAmI(), err)
	}

	return orderID, true, nil
}

// SaveOrderID запоминает ключ. Если ключ уже занят, сохраняется первое значение.
func (r *CacheRepo) SaveOrderID(ctx context.Context, customerID, key, orderID string) error {
	ok, err := r.client.Client.SetNX(ctx, idemOrderKey(customerID, key), orderID, r.cfg.IdempotencyTTL).Result()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if !ok {
		r.logger.Warnf("Idempotency key already bound: customer=%s key=%s", customerID, key)
	}

	return nil
}

func idemOrderKey(customerID, key string) string {
	return fmt.Sprintf(keyIdemOrderCreate, customerID, key)
}
