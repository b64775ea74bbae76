package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/xid"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		return mapError(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	return getUserByUsername(ctx, s.db, username)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, s.db, id, false)
}

func (s *Store) OrderStats(ctx context.Context, from time.Time, to time.Time) (domain.OrderStats, error) {
	stats := domain.OrderStats{From: from, To: to}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COUNT(*) FILTER (WHERE status = 'REFUNDED'),
			COALESCE(SUM(total) FILTER (WHERE status = 'COMPLETED'), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&stats.Total, &stats.Pending, &stats.Completed, &stats.Cancelled, &stats.Refunded, &stats.Revenue)
	if err != nil {
		return domain.OrderStats{}, err
	}
	return stats, nil
}

func (s *Store) GetInventory(ctx context.Context, productID string) (*domain.Inventory, error) {
	return getInventory(ctx, s.db, productID, false)
}

func (s *Store) ListLowStock(ctx context.Context) ([]domain.Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.product_id, p.name, i.quantity, i.low_stock_threshold, COALESCE(i.updated_by, ''), i.updated_at
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.quantity <= i.low_stock_threshold
		ORDER BY i.quantity ASC, i.product_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Inventory, 0, 16)
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(&inv.ProductID, &inv.ProductName, &inv.Quantity, &inv.LowStockThreshold, &inv.UpdatedBy, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		inv.UpdatedAt = inv.UpdatedAt.UTC()
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InventoryStats(ctx context.Context) (domain.InventoryStats, error) {
	var stats domain.InventoryStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE quantity > low_stock_threshold),
			COUNT(*) FILTER (WHERE quantity > 0 AND quantity <= low_stock_threshold),
			COUNT(*) FILTER (WHERE quantity = 0)
		FROM inventory
	`).Scan(&stats.Total, &stats.InStock, &stats.LowStock, &stats.OutOfStock)
	if err != nil {
		return domain.InventoryStats{}, err
	}
	return stats, nil
}

func (s *Store) GetOpenShift(ctx context.Context, cashierID string) (*domain.Shift, error) {
	return getOpenShift(ctx, s.db, cashierID, false)
}

func (s *Store) SumCashPayments(ctx context.Context, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error) {
	return sumCashPayments(ctx, s.db, cashierID, from, to)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.ID == "" {
		user.ID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.ID, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	return mapError(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// mapError translates driver errors into store sentinels, keeping the
// original error in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	case "40001", "40P01":
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	default:
		return err
	}
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
