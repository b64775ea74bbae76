package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/metrics"
)

const orderKeyPrefix = "kasirpos:order:"

type RedisOrderCache struct {
	client *redis.Client
}

func NewRedisOrderCache(addr string, password string, db int) *RedisOrderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisOrderCache{client: client}
}

func (c *RedisOrderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisOrderCache) Close() error {
	return c.client.Close()
}

func (c *RedisOrderCache) Get(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	val, err := c.client.Get(ctx, orderKeyPrefix+orderID).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var order domain.Order
	if err := json.Unmarshal([]byte(val), &order); err != nil {
		return nil, false, err
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return &order, true, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, order *domain.Order, ttl time.Duration) error {
	if order == nil {
		return nil
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, orderKeyPrefix+order.ID, payload, ttl).Err()
}

func (c *RedisOrderCache) Delete(ctx context.Context, orderID string) error {
	return c.client.Del(ctx, orderKeyPrefix+orderID).Err()
}
