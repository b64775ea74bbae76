package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/xid"
)

// Store keeps everything in maps guarded by one RWMutex. RunInTx holds the
// write lock for the whole transaction, so transactions are serialized.
// Repository methods must not be called from inside a RunInTx callback.
type Store struct {
	mu                 sync.RWMutex
	products           map[string]domain.Product
	inventory          map[string]domain.Inventory
	customers          map[string]domain.Customer
	usersByUsername    map[string]domain.UserAccount
	orders             map[string]domain.Order
	shifts             map[string]domain.Shift
	openShiftByCashier map[string]string
	auditLogs          []domain.AuditLog
}

// Seed is the initial content of a Store.
type Seed struct {
	Products  []domain.Product
	Inventory []domain.Inventory
	Customers []domain.Customer
	Users     []domain.UserAccount
	Orders    []domain.Order
	Shifts    []domain.Shift
}

func New(seed Seed) *Store {
	s := &Store{
		products:           make(map[string]domain.Product, len(seed.Products)),
		inventory:          make(map[string]domain.Inventory, len(seed.Inventory)),
		customers:          make(map[string]domain.Customer, len(seed.Customers)),
		usersByUsername:    make(map[string]domain.UserAccount, len(seed.Users)),
		orders:             make(map[string]domain.Order, len(seed.Orders)),
		shifts:             make(map[string]domain.Shift, len(seed.Shifts)),
		openShiftByCashier: make(map[string]string),
		auditLogs:          make([]domain.AuditLog, 0, 128),
	}
	for _, p := range seed.Products {
		s.products[p.ID] = p
	}
	for _, inv := range seed.Inventory {
		s.inventory[inv.ProductID] = inv
	}
	for _, c := range seed.Customers {
		s.customers[c.ID] = c
	}
	for _, u := range seed.Users {
		if u.ID == "" {
			u.ID = xid.New("usr")
		}
		s.usersByUsername[u.Username] = u
	}
	for _, o := range seed.Orders {
		s.orders[o.ID] = cloneOrder(o)
	}
	for _, sh := range seed.Shifts {
		s.shifts[sh.ID] = sh
		if sh.Status == domain.ShiftStatusOpen {
			s.openShiftByCashier[sh.CashierID] = sh.ID
		}
	}
	return s
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD.
// If unset, hardcoded dev defaults are used with a warning.
func seedUsers(logger *zap.Logger) ([]domain.UserAccount, error) {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logger.Warn("using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := make([]domain.UserAccount, 0, 2)
	for _, u := range []struct {
		id       string
		username string
		password string
		role     string
	}{
		{"usr-admin", "admin", adminPwd, domain.RoleAdmin},
		{"usr-cashier", "cashier", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", u.username, err)
		}
		users = append(users, domain.UserAccount{
			ID:        u.id,
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		})
	}
	return users, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with demo products, customers and the admin and
// cashier accounts. A nil logger discards the credential warning.
func NewSeeded(logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	users, err := seedUsers(logger)
	if err != nil {
		return nil, err
	}

	products := []domain.Product{
		{ID: "prd-mie", SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Price: decimal.RequireFromString("0.35"), CategoryID: "grocery", Active: true},
		{ID: "prd-telur", SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", Price: decimal.RequireFromString("2.65"), CategoryID: "grocery", Active: true},
		{ID: "prd-susu", SKU: "SKU-SUSU-01", Name: "Susu UHT 1L", Price: decimal.RequireFromString("1.89"), CategoryID: "dairy", Active: true},
		{ID: "prd-roti", SKU: "SKU-ROTI-01", Name: "Roti Tawar", Price: decimal.RequireFromString("1.78"), CategoryID: "bakery", Active: true},
		{ID: "prd-kopi", SKU: "SKU-KOPI-01", Name: "Kopi Sachet", Price: decimal.RequireFromString("0.26"), CategoryID: "beverage", Active: true},
		{ID: "prd-gula", SKU: "SKU-GULA-01", Name: "Gula 1kg", Price: decimal.RequireFromString("1.74"), CategoryID: "grocery", Active: true},
		{ID: "prd-teh", SKU: "SKU-TEH-01", Name: "Teh Celup", Price: decimal.RequireFromString("0.98"), CategoryID: "beverage", Active: true},
		{ID: "prd-air", SKU: "SKU-AIR-01", Name: "Air Mineral 600ml", Price: decimal.RequireFromString("0.39"), CategoryID: "beverage", Active: true},
		{ID: "prd-keripik", SKU: "SKU-KERIPIK-01", Name: "Keripik Singkong", Price: decimal.RequireFromString("1.28"), CategoryID: "snack", Active: true},
		{ID: "prd-coklat", SKU: "SKU-COKLAT-01", Name: "Coklat Batang", Price: decimal.RequireFromString("0.86"), CategoryID: "snack", Active: true},
		{ID: "prd-sabun", SKU: "SKU-SABUN-01", Name: "Sabun Mandi", Price: decimal.RequireFromString("0.74"), CategoryID: "household", Active: true},
		{ID: "prd-shampoo", SKU: "SKU-SHAMPOO-01", Name: "Shampoo Sachet", Price: decimal.RequireFromString("0.32"), CategoryID: "household", Active: false},
	}

	now := time.Now().UTC()
	inventory := make([]domain.Inventory, 0, len(products))
	for _, p := range products {
		inventory = append(inventory, domain.Inventory{
			ProductID:         p.ID,
			Quantity:          120,
			LowStockThreshold: domain.DefaultLowStockThreshold,
			UpdatedBy:         "system",
			UpdatedAt:         now,
		})
	}
	inventory[len(inventory)-2].Quantity = 6

	customers := []domain.Customer{
		{ID: "cus-ani", Name: "Ani Lestari", Email: "ani@example.com", RewardPoints: 500},
		{ID: "cus-budi", Name: "Budi Santoso", Email: "budi@example.com", RewardPoints: 0},
	}

	return New(Seed{
		Products:  products,
		Inventory: inventory,
		Customers: customers,
		Users:     users,
	}), nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := cloneOrder(order)
	return &dup, nil
}

func (s *Store) OrderStats(_ context.Context, from time.Time, to time.Time) (domain.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.OrderStats{From: from, To: to, Revenue: decimal.Zero}
	for _, order := range s.orders {
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		stats.Total++
		switch order.Status {
		case domain.OrderStatusPending:
			stats.Pending++
		case domain.OrderStatusCompleted:
			stats.Completed++
			stats.Revenue = stats.Revenue.Add(order.Total)
		case domain.OrderStatusCancelled:
			stats.Cancelled++
		case domain.OrderStatusRefunded:
			stats.Refunded++
		}
	}
	return stats, nil
}

func (s *Store) GetInventory(_ context.Context, productID string) (*domain.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.inventory[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	inv.ProductName = s.products[productID].Name
	return &inv, nil
}

func (s *Store) ListLowStock(_ context.Context) ([]domain.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Inventory, 0, 8)
	for productID, inv := range s.inventory {
		if inv.Quantity > inv.LowStockThreshold {
			continue
		}
		inv.ProductName = s.products[productID].Name
		result = append(result, inv)
	}
	slices.SortFunc(result, func(a, b domain.Inventory) int {
		if a.Quantity != b.Quantity {
			return a.Quantity - b.Quantity
		}
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return result, nil
}

func (s *Store) InventoryStats(_ context.Context) (domain.InventoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.InventoryStats
	for _, inv := range s.inventory {
		stats.Total++
		switch {
		case inv.Quantity == 0:
			stats.OutOfStock++
		case inv.Quantity <= inv.LowStockThreshold:
			stats.LowStock++
		default:
			stats.InStock++
		}
	}
	return stats, nil
}

func (s *Store) GetOpenShift(_ context.Context, cashierID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, ok := s.openShiftByCashier[cashierID]
	if !ok {
		return nil, store.ErrNotFound
	}
	shift := s.shifts[shiftID]
	return &shift, nil
}

func (s *Store) SumCashPayments(_ context.Context, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, order := range s.orders {
		total = total.Add(cashContribution(order, cashierID, from, to))
	}
	return total, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

// AuditLogs returns a copy of the audit trail, oldest first.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.auditLogs)
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return domain.Validation("username and password are required")
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cashContribution(order domain.Order, cashierID string, from time.Time, to time.Time) decimal.Decimal {
	payment := order.Payment
	if order.CashierID != cashierID || payment.Method != domain.PaymentMethodCash || payment.Status != domain.PaymentStatusCompleted {
		return decimal.Zero
	}
	if payment.CreatedAt.Before(from) || payment.CreatedAt.After(to) {
		return decimal.Zero
	}
	return payment.Amount
}

func cloneOrder(src domain.Order) domain.Order {
	dup := src
	dup.Items = slices.Clone(src.Items)
	return dup
}
