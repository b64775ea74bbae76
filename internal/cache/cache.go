package cache

import (
	"context"
	"time"

	"kasirpos/backend/internal/domain"
)

// OrderCache holds read-only snapshots of orders keyed by order id.
type OrderCache interface {
	Get(ctx context.Context, orderID string) (*domain.Order, bool, error)
	Set(ctx context.Context, order *domain.Order, ttl time.Duration) error
	Delete(ctx context.Context, orderID string) error
}

type NoopOrderCache struct{}

func (NoopOrderCache) Get(_ context.Context, _ string) (*domain.Order, bool, error) {
	return nil, false, nil
}

func (NoopOrderCache) Set(_ context.Context, _ *domain.Order, _ time.Duration) error {
	return nil
}

func (NoopOrderCache) Delete(_ context.Context, _ string) error {
	return nil
}
