package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
)

// tx stages writes on top of the store maps. Reads see staged values first.
// Nothing reaches the store until commit.
type tx struct {
	s         *Store
	inventory map[string]domain.Inventory
	customers map[string]domain.Customer
	orders    map[string]domain.Order
	shifts    map[string]domain.Shift
	// staged open-shift index; an empty value means the shift was closed
	openShift map[string]string
}

func newTx(s *Store) *tx {
	return &tx{
		s:         s,
		inventory: make(map[string]domain.Inventory),
		customers: make(map[string]domain.Customer),
		orders:    make(map[string]domain.Order),
		shifts:    make(map[string]domain.Shift),
		openShift: make(map[string]string),
	}
}

func (t *tx) commit() {
	for id, inv := range t.inventory {
		t.s.inventory[id] = inv
	}
	for id, c := range t.customers {
		t.s.customers[id] = c
	}
	for id, o := range t.orders {
		t.s.orders[id] = o
	}
	for id, sh := range t.shifts {
		t.s.shifts[id] = sh
	}
	for cashierID, shiftID := range t.openShift {
		if shiftID == "" {
			delete(t.s.openShiftByCashier, cashierID)
			continue
		}
		t.s.openShiftByCashier[cashierID] = shiftID
	}
}

func (t *tx) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	user, ok := t.s.usersByUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (t *tx) GetCustomerForUpdate(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := t.customers[id]; ok {
		return &c, nil
	}
	c, ok := t.s.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *tx) UpdateCustomerPoints(ctx context.Context, id string, points int) error {
	c, err := t.GetCustomerForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if points < 0 {
		return domain.Validation("reward points cannot be negative")
	}
	c.RewardPoints = points
	t.customers[id] = *c
	return nil
}

func (t *tx) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := t.s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (t *tx) GetInventoryForUpdate(_ context.Context, productID string) (*domain.Inventory, error) {
	if inv, ok := t.inventory[productID]; ok {
		return &inv, nil
	}
	inv, ok := t.s.inventory[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	inv.ProductName = t.s.products[productID].Name
	return &inv, nil
}

func (t *tx) SaveInventory(_ context.Context, inventory domain.Inventory) error {
	if inventory.Quantity < 0 {
		return domain.Validation("inventory quantity cannot be negative")
	}
	if inventory.UpdatedAt.IsZero() {
		inventory.UpdatedAt = time.Now().UTC()
	}
	t.inventory[inventory.ProductID] = inventory
	return nil
}

func (t *tx) InsertOrder(_ context.Context, order domain.Order) error {
	if _, ok := t.orders[order.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := t.s.orders[order.ID]; ok {
		return store.ErrDuplicate
	}
	t.orders[order.ID] = cloneOrder(order)
	return nil
}

func (t *tx) GetOrderForUpdate(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := t.orders[id]; ok {
		dup := cloneOrder(o)
		return &dup, nil
	}
	o, ok := t.s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := cloneOrder(o)
	return &dup, nil
}

func (t *tx) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	order, err := t.GetOrderForUpdate(ctx, id)
	if err != nil {
		return err
	}
	order.Status = status
	t.orders[id] = *order
	return nil
}

func (t *tx) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	order, err := t.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	order.Payment.Status = status
	t.orders[orderID] = *order
	return nil
}

func (t *tx) openShiftID(cashierID string) string {
	if id, ok := t.openShift[cashierID]; ok {
		return id
	}
	return t.s.openShiftByCashier[cashierID]
}

func (t *tx) getShift(id string) (domain.Shift, bool) {
	if sh, ok := t.shifts[id]; ok {
		return sh, true
	}
	sh, ok := t.s.shifts[id]
	return sh, ok
}

func (t *tx) GetOpenShiftForUpdate(_ context.Context, cashierID string) (*domain.Shift, error) {
	id := t.openShiftID(cashierID)
	if id == "" {
		return nil, store.ErrNotFound
	}
	sh, ok := t.getShift(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sh, nil
}

func (t *tx) InsertShift(_ context.Context, shift domain.Shift) error {
	if _, exists := t.getShift(shift.ID); exists {
		return store.ErrDuplicate
	}
	if shift.Status == domain.ShiftStatusOpen {
		if t.openShiftID(shift.CashierID) != "" {
			return store.ErrDuplicate
		}
		t.openShift[shift.CashierID] = shift.ID
	}
	t.shifts[shift.ID] = shift
	return nil
}

func (t *tx) UpdateShift(_ context.Context, shift domain.Shift) error {
	if _, exists := t.getShift(shift.ID); !exists {
		return store.ErrNotFound
	}
	if shift.Status == domain.ShiftStatusClosed && t.openShiftID(shift.CashierID) == shift.ID {
		t.openShift[shift.CashierID] = ""
	}
	t.shifts[shift.ID] = shift
	return nil
}

func (t *tx) SumCashPayments(_ context.Context, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for id, order := range t.s.orders {
		if staged, ok := t.orders[id]; ok {
			order = staged
		}
		total = total.Add(cashContribution(order, cashierID, from, to))
	}
	for id, order := range t.orders {
		if _, ok := t.s.orders[id]; ok {
			continue
		}
		total = total.Add(cashContribution(order, cashierID, from, to))
	}
	return total, nil
}
