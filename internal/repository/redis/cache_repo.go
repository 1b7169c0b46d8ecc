package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/repository/redis/converter"
	"github.com/spams12/gege/pkg/clients"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/jitter"
	"github.com/spams12/gege/pkg/logger"
)

// ttlJitter разносит истечение карточек, закэшированных одновременно.
const ttlJitter = 0.2

// CacheRepo кэширует карточки товаров и хранит ключи идемпотентности заказов.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает карточку из кэша или nil при промахе.
// Повреждённая запись удаляется и считается промахом.
func (r *CacheRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	key := productKey(id)

	data, err := r.client.Client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	product, err := r.decodeProduct(data, id)
	if err != nil {
		r.logger.Warnf("Dropping broken cache entry %s: %v", key, err)
		if err := r.client.Client.Unlink(ctx, key).Err(); err != nil {
			r.logger.Warnf("Redis UNLINK failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil
	}

	return product, nil
}

// SetProduct кэширует карточку на ProductTTL с небольшим случайным запасом.
func (r *CacheRepo) SetProduct(ctx context.Context, product *domain.Product) error {
	if product == nil {
		return nil
	}

	data, err := json.Marshal(r.conv.ToRedisModel(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := r.client.Client.Set(ctx, productKey(product.ID), data, r.productTTL()).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// InvalidateProducts удаляет карточки, состояние которых изменилось в хранилище.
func (r *CacheRepo) InvalidateProducts(ctx context.Context, ids []int64) error {
	keys := productKeys(ids)
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Client.Unlink(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *CacheRepo) productTTL() time.Duration {
	return jitter.Duration(r.cfg.ProductTTL, ttlJitter)
}

// decodeProduct проверяет, что запись относится к запрошенному товару.
func (r *CacheRepo) decodeProduct(data []byte, id int64) (*domain.Product, error) {
	var model converter.ProductRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	if model.ID != id {
		return nil, fmt.Errorf("cache id mismatch: key_id=%d, model_id=%d", id, model.ID)
	}

	return r.conv.ToEntity(&model), nil
}

func productKey(id int64) string {
	return fmt.Sprintf(keyProduct, id)
}

// productKeys возвращает ключи без повторов.
func productKeys(ids []int64) []string {
	seen := make(map[int64]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, productKey(id))
	}

	return keys
}
