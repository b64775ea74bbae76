package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

func TestNewSeededWarnsOnDefaultCredentials(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "")
	t.Setenv("SEED_CASHIER_PASSWORD", "")
	core, logs := observer.New(zapcore.WarnLevel)

	s, err := NewSeeded(zap.New(core))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "default dev credentials")

	cashier, err := s.GetUserByUsername(context.Background(), "cashier")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cashier.Password), []byte("cashier123")))
}

func TestNewSeededUsesEnvCredentialsQuietly(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-from-env")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-from-env")
	core, logs := observer.New(zapcore.WarnLevel)

	s, err := NewSeeded(zap.New(core))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	admin, err := s.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin-from-env")))
}

func TestNewSeededReturnsHashError(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", strings.Repeat("x", 100))
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-from-env")

	_, err := NewSeeded(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin")
}
