package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	return getUserByUsername(ctx, t.tx, username)
}

func (t *pgTx) GetCustomerForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	var email sql.NullString
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, email, reward_points
		FROM customers
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&c.ID, &c.Name, &email, &c.RewardPoints)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.Email = email.String
	return &c, nil
}

func (t *pgTx) UpdateCustomerPoints(ctx context.Context, id string, points int) error {
	if points < 0 {
		return domain.Validation("reward points cannot be negative")
	}
	return execOne(ctx, t.tx, `UPDATE customers SET reward_points = $2 WHERE id = $1`, id, points)
}

func (t *pgTx) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	var sku, barcode, category sql.NullString
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, sku, barcode, price, category_id, active
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &sku, &barcode, &p.Price, &category, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.SKU = sku.String
	p.Barcode = barcode.String
	p.CategoryID = category.String
	return &p, nil
}

func (t *pgTx) GetInventoryForUpdate(ctx context.Context, productID string) (*domain.Inventory, error) {
	return getInventory(ctx, t.tx, productID, true)
}

func (t *pgTx) SaveInventory(ctx context.Context, inv domain.Inventory) error {
	if inv.Quantity < 0 {
		return domain.Validation("inventory quantity cannot be negative")
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now().UTC()
	}
	return execOne(ctx, t.tx, `
		UPDATE inventory
		SET quantity = $2, low_stock_threshold = $3, updated_by = $4, updated_at = $5
		WHERE product_id = $1
	`, inv.ProductID, inv.Quantity, inv.LowStockThreshold, nullIfEmpty(inv.UpdatedBy), inv.UpdatedAt)
}

func (t *pgTx) InsertOrder(ctx context.Context, order domain.Order) error {
	customerID, _ := order.Customer.Get()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, cashier_id, subtotal, discount, tax, total, status,
			payment_method, points_redeemed, points_earned, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, order.ID, nullIfEmpty(customerID), order.CashierID, order.Subtotal, order.Discount, order.Tax, order.Total,
		order.Status, order.PaymentMethod, order.PointsRedeemed, order.PointsEarned, order.CreatedAt)
	if err != nil {
		return err
	}

	for idx, item := range order.Items {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, line_no, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, item.ID, order.ID, idx+1, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.Subtotal)
		if err != nil {
			return err
		}
	}

	payment := order.Payment
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, method, amount, status, transaction_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, payment.ID, order.ID, payment.Method, payment.Amount, payment.Status, nullIfEmpty(payment.TransactionID), payment.CreatedAt)
	return err
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return getOrder(ctx, t.tx, id, true)
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return execOne(ctx, t.tx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
}

func (t *pgTx) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	return execOne(ctx, t.tx, `UPDATE payments SET status = $2 WHERE order_id = $1`, orderID, status)
}

func (t *pgTx) GetOpenShiftForUpdate(ctx context.Context, cashierID string) (*domain.Shift, error) {
	return getOpenShift(ctx, t.tx, cashierID, true)
}

func (t *pgTx) InsertShift(ctx context.Context, shift domain.Shift) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO shifts (
			id, cashier_id, cashier_username, opening_float, cash_sales, expected_cash,
			counted_cash, difference, status, opened_at, closed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, shift.ID, shift.CashierID, shift.CashierUsername, shift.OpeningFloat, shift.CashSales, shift.ExpectedCash,
		shift.CountedCash, shift.Difference, shift.Status, shift.OpenedAt, nullTime(shift.ClosedAt))
	return err
}

func (t *pgTx) UpdateShift(ctx context.Context, shift domain.Shift) error {
	return execOne(ctx, t.tx, `
		UPDATE shifts
		SET cash_sales = $2, expected_cash = $3, counted_cash = $4, difference = $5, status = $6, closed_at = $7
		WHERE id = $1
	`, shift.ID, shift.CashSales, shift.ExpectedCash, shift.CountedCash, shift.Difference, shift.Status, nullTime(shift.ClosedAt))
}

func (t *pgTx) SumCashPayments(ctx context.Context, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error) {
	return sumCashPayments(ctx, t.tx, cashierID, from, to)
}

func execOne(ctx context.Context, q querier, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
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

func getUserByUsername(ctx context.Context, q querier, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := q.QueryRowContext(ctx, `
		SELECT id, username, password, role, active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func getInventory(ctx context.Context, q querier, productID string, forUpdate bool) (*domain.Inventory, error) {
	query := `
		SELECT i.product_id, p.name, i.quantity, i.low_stock_threshold, COALESCE(i.updated_by, ''), i.updated_at
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.product_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE OF i"
	}

	var inv domain.Inventory
	err := q.QueryRowContext(ctx, query, productID).Scan(
		&inv.ProductID, &inv.ProductName, &inv.Quantity, &inv.LowStockThreshold, &inv.UpdatedBy, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return &inv, nil
}

func getOrder(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Order, error) {
	query := `
		SELECT o.id, o.customer_id, o.cashier_id, o.subtotal, o.discount, o.tax, o.total, o.status,
			o.payment_method, o.points_redeemed, o.points_earned, o.created_at,
			p.id, p.method, p.amount, p.status, p.transaction_id, p.created_at
		FROM orders o
		JOIN payments p ON p.order_id = o.id
		WHERE o.id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var order domain.Order
	var customerID, transactionID sql.NullString
	err := q.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &customerID, &order.CashierID, &order.Subtotal, &order.Discount, &order.Tax, &order.Total, &order.Status,
		&order.PaymentMethod, &order.PointsRedeemed, &order.PointsEarned, &order.CreatedAt,
		&order.Payment.ID, &order.Payment.Method, &order.Payment.Amount, &order.Payment.Status, &transactionID, &order.Payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if customerID.Valid {
		order.Customer = domain.CustomerID(customerID.String)
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.Payment.OrderID = order.ID
	order.Payment.TransactionID = transactionID.String
	order.Payment.CreatedAt = order.Payment.CreatedAt.UTC()

	rows, err := q.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order.Items = make([]domain.OrderItem, 0, 8)
	for rows.Next() {
		item := domain.OrderItem{OrderID: order.ID}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &order, nil
}

func getOpenShift(ctx context.Context, q querier, cashierID string, forUpdate bool) (*domain.Shift, error) {
	query := `
		SELECT id, cashier_id, cashier_username, opening_float, cash_sales, expected_cash,
			counted_cash, difference, status, opened_at, closed_at
		FROM shifts
		WHERE cashier_id = $1 AND status = 'OPEN'
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var shift domain.Shift
	var closedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, cashierID).Scan(
		&shift.ID, &shift.CashierID, &shift.CashierUsername, &shift.OpeningFloat, &shift.CashSales, &shift.ExpectedCash,
		&shift.CountedCash, &shift.Difference, &shift.Status, &shift.OpenedAt, &closedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	shift.OpenedAt = shift.OpenedAt.UTC()
	if closedAt.Valid {
		at := closedAt.Time.UTC()
		shift.ClosedAt = &at
	}
	return &shift, nil
}

func sumCashPayments(ctx context.Context, q querier, cashierID string, from time.Time, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.cashier_id = $1
			AND p.method = 'CASH'
			AND p.status = 'COMPLETED'
			AND p.created_at >= $2
			AND p.created_at <= $3
	`, cashierID, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
