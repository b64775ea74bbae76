package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("MANAGER_PIN", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.ManagerPIN != "" {
		t.Fatalf("expected empty MANAGER_PIN when unset, got %q", cfg.ManagerPIN)
	}
}

func TestLoadBusinessDefaults(t *testing.T) {
	for _, key := range []string{"TAX_RATE", "POINTS_PER_DOLLAR", "REDEMPTION_RATE", "CHECKOUT_MAX_RETRIES", "ORDER_CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 1, cfg.PointsPerDollar)
	assert.Equal(t, 100, cfg.RedemptionRate)
	assert.Equal(t, 3, cfg.CheckoutMaxRetries)
	assert.Equal(t, 60, cfg.OrderCacheTTLSeconds)
}

func TestLoadRejectsInvalidBusinessValues(t *testing.T) {
	t.Setenv("TAX_RATE", "-0.2")
	t.Setenv("POINTS_PER_DOLLAR", "-1")
	t.Setenv("REDEMPTION_RATE", "0")
	t.Setenv("CHECKOUT_MAX_RETRIES", "abc")

	cfg := Load()
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, 1, cfg.PointsPerDollar)
	assert.Equal(t, 100, cfg.RedemptionRate)
	assert.Equal(t, 3, cfg.CheckoutMaxRetries)
}

func TestLoadAllowsZeroPointsPerDollar(t *testing.T) {
	t.Setenv("POINTS_PER_DOLLAR", "0")
	t.Setenv("TAX_RATE", "0.11")

	cfg := Load()
	assert.Equal(t, 0, cfg.PointsPerDollar)
	assert.Equal(t, "0.11", cfg.TaxRate.String())
}
