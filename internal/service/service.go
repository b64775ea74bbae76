package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirpos/backend/internal/cache"
	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/metrics"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/xid"
)

// Settings are the business parameters of checkout.
type Settings struct {
	TaxRate       decimal.Decimal
	Rewards       domain.RewardSettings
	MaxRetries    int
	OrderCacheTTL time.Duration
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now. Returned times are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type Service struct {
	repo     store.Repository
	orders   cache.OrderCache
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo store.Repository, orders cache.OrderCache, settings Settings, opts ...Option) *Service {
	if orders == nil {
		orders = cache.NoopOrderCache{}
	}
	if settings.TaxRate.IsNegative() {
		settings.TaxRate = decimal.Zero
	}
	settings.Rewards = normalizeRewards(settings.Rewards)
	if settings.MaxRetries < 1 {
		settings.MaxRetries = 1
	}
	if settings.OrderCacheTTL <= 0 {
		settings.OrderCacheTTL = time.Minute
	}

	s := &Service{
		repo:     repo,
		orders:   orders,
		settings: settings,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// withRetry re-runs op while the store reports a serialization conflict.
func (s *Service) withRetry(ctx context.Context, name string, op func() error) error {
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, store.ErrConflict) || attempt >= s.settings.MaxRetries {
			return err
		}

		metrics.CheckoutRetries.Inc()
		s.logger.Warn("retrying after storage conflict",
			zap.String("op", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
}

func resolveCashier(ctx context.Context, tx store.Tx, actor domain.Actor) (*domain.UserAccount, error) {
	username := normalizeUsername(actor.Username)
	if username == "" {
		return nil, domain.NotFound("User", actor.Username)
	}
	user, err := tx.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.NotFound("User", username)
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.NotFound("User", username)
	}
	return user, nil
}

func (s *Service) lookupCashier(ctx context.Context, actor domain.Actor) (*domain.UserAccount, error) {
	username := normalizeUsername(actor.Username)
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.NotFound("User", username)
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.NotFound("User", username)
	}
	return user, nil
}

func (s *Service) logAudit(ctx context.Context, actor domain.Actor, action string, entityType string, entityID string, detail string) {
	if actor.Username == "" {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.clock(),
	}); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err),
		)
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func errorKind(err error) string {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return string(domainErr.Kind)
	}
	if errors.Is(err, store.ErrConflict) {
		return "conflict"
	}
	return "internal"
}
