package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kasirpos/backend/internal/domain"
)

func TestRedisOrderCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("KASIRPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set KASIRPOS_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	c := NewRedisOrderCache(addr, os.Getenv("KASIRPOS_TEST_REDIS_PASSWORD"), 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	orderID := "ord-cache-it-" + time.Now().UTC().Format("150405.000000")
	order := &domain.Order{
		ID:       orderID,
		Customer: domain.CustomerID("cus-ani"),
		Total:    decimal.RequireFromString("38.50"),
		Status:   domain.OrderStatusCompleted,
	}
	require.NoError(t, c.Set(ctx, order, time.Minute))

	got, ok, err := c.Get(ctx, orderID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Total.Equal(order.Total))
	id, _ := got.Customer.Get()
	assert.Equal(t, "cus-ani", id)

	require.NoError(t, c.Delete(ctx, orderID))
	_, ok, err = c.Get(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopOrderCacheNeverHits(t *testing.T) {
	var c OrderCache = NoopOrderCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Order{ID: "o1"}, time.Minute))
	_, ok, err := c.Get(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "o1"))
}
