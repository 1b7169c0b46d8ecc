package clients

import (
	"context"

	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/pkg/e"
)

// RedisClient: общее подключение к Redis для кэша товаров и ключей идемпотентности.
type RedisClient struct {
	Client *goredis.Client
}

func NewRedisClient(cfg *cfg.RedisCfg) *RedisClient {
	return &RedisClient{Client: goredis.NewClient(redisOptions(cfg))}
}

func redisOptions(cfg *cfg.RedisCfg) *goredis.Options {
	return &goredis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.User,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		// Таймауты из контекста запроса важнее ReadTimeout/WriteTimeout
		ContextTimeoutEnabled: true,
	}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *RedisClient) Close(_ context.Context) error {
	if err := r.Client.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
