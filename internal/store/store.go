package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a uniqueness violation, e.g. a second open shift.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict reports a transaction aborted by a concurrent writer. The
	// whole transaction may be retried.
	ErrConflict = errors.New("concurrent update conflict")
)

type Repository interface {
	// RunInTx runs fn in one atomic unit. Every write made through tx is
	// committed if fn returns nil and discarded otherwise.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	OrderStats(ctx context.Context, from time.Time, to time.Time) (domain.OrderStats, error)
	GetInventory(ctx context.Context, productID string) (*domain.Inventory, error)
	ListLowStock(ctx context.Context) ([]domain.Inventory, error)
	InventoryStats(ctx context.Context) (domain.InventoryStats, error)
	GetOpenShift(ctx context.Context, cashierID string) (*domain.Shift, error)
	SumCashPayments(ctx context.Context, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error)
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// Tx is the view of the store inside RunInTx. The ForUpdate reads lock the
// row until the transaction ends.
type Tx interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	GetCustomerForUpdate(ctx context.Context, id string) (*domain.Customer, error)
	UpdateCustomerPoints(ctx context.Context, id string, points int) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetInventoryForUpdate(ctx context.Context, productID string) (*domain.Inventory, error)
	SaveInventory(ctx context.Context, inventory domain.Inventory) error

	InsertOrder(ctx context.Context, order domain.Order) error
	GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error

	GetOpenShiftForUpdate(ctx context.Context, cashierID string) (*domain.Shift, error)
	InsertShift(ctx context.Context, shift domain.Shift) error
	UpdateShift(ctx context.Context, shift domain.Shift) error
	SumCashPayments(ctx context.Context, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error)
}
