package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/metrics"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/xid"
)

// CreateOrder validates a cart and commits the order, its items, its payment,
// the stock decrements and the customer's point balance in one transaction.
// Every precondition is checked before anything is written.
func (s *Service) CreateOrder(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (domain.Order, error) {
	var created domain.Order
	err := s.withRetry(ctx, "create_order", func() error {
		return s.repo.RunInTx(ctx, func(tx store.Tx) error {
			order, err := s.checkout(ctx, tx, actor, req)
			if err != nil {
				return err
			}
			created = order
			return nil
		})
	})
	if err != nil {
		metrics.CheckoutFailures.WithLabelValues(errorKind(err)).Inc()
		return domain.Order{}, err
	}

	metrics.OrdersCreated.WithLabelValues(string(created.PaymentMethod)).Inc()
	s.logger.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("cashier", actor.Username),
		zap.String("customer", created.Customer.String()),
		zap.Int("items", len(created.Items)),
		zap.String("total", created.Total.StringFixed(2)),
	)
	s.cacheOrder(ctx, &created)
	s.logAudit(ctx, actor, "order_create", "order", created.ID, fmt.Sprintf(
		"total=%s,payment=%s,discount=%s,points_redeemed=%d,points_earned=%d",
		created.Total.StringFixed(2),
		created.PaymentMethod,
		created.Discount.StringFixed(2),
		created.PointsRedeemed,
		created.PointsEarned,
	))

	return created, nil
}

func (s *Service) checkout(ctx context.Context, tx store.Tx, actor domain.Actor, req domain.CreateOrderRequest) (domain.Order, error) {
	cashier, err := resolveCashier(ctx, tx, actor)
	if err != nil {
		return domain.Order{}, err
	}

	var customer *domain.Customer
	if customerID, ok := req.Customer.Get(); ok {
		customer, err = tx.GetCustomerForUpdate(ctx, customerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Order{}, domain.NotFound("Customer", customerID)
			}
			return domain.Order{}, err
		}
	}

	if err := validateOrderRequest(req); err != nil {
		return domain.Order{}, err
	}

	discount := req.Discount
	pointsRedeemed := 0
	if customer != nil && req.PointsToRedeem > 0 {
		if customer.RewardPoints < req.PointsToRedeem {
			return domain.Order{}, domain.InsufficientPoints(customer.RewardPoints, req.PointsToRedeem)
		}
		pointsRedeemed = req.PointsToRedeem
		discount = discount.Add(redemptionValue(pointsRedeemed, s.settings.Rewards.RedemptionRate))
	}

	now := s.clock()
	orderID := xid.New("ord")

	// stock is reserved in memory first and written only once every line passed
	reserved := make(map[string]*domain.Inventory, len(req.Items))
	reserveOrder := make([]string, 0, len(req.Items))
	items := make([]domain.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero

	for _, line := range req.Items {
		productID := strings.TrimSpace(line.ProductID)
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Order{}, domain.NotFound("Product", productID)
			}
			return domain.Order{}, err
		}
		if !product.Active {
			return domain.Order{}, domain.ProductUnavailable(product.Name)
		}

		inv, ok := reserved[product.ID]
		if !ok {
			inv, err = tx.GetInventoryForUpdate(ctx, product.ID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return domain.Order{}, domain.InventoryMissing(product.Name)
				}
				return domain.Order{}, err
			}
			reserved[product.ID] = inv
			reserveOrder = append(reserveOrder, product.ID)
		}
		if inv.Quantity < line.Quantity {
			return domain.Order{}, domain.InsufficientStock(product.Name, inv.Quantity)
		}
		inv.Quantity -= line.Quantity

		lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineSubtotal)
		items = append(items, domain.OrderItem{
			ID:          xid.New("itm"),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    lineSubtotal,
		})
	}

	for _, productID := range reserveOrder {
		inv := reserved[productID]
		inv.UpdatedAt = now
		if err := tx.SaveInventory(ctx, *inv); err != nil {
			return domain.Order{}, err
		}
	}

	tax, total := orderTotals(subtotal, discount, s.settings.TaxRate)

	ref := domain.WalkIn()
	pointsEarned := 0
	if customer != nil {
		ref = domain.CustomerID(customer.ID)
		pointsEarned = earnedPoints(subtotal, s.settings.Rewards.PointsPerDollar)
		if pointsRedeemed > 0 || pointsEarned > 0 {
			balance := customer.RewardPoints - pointsRedeemed + pointsEarned
			if err := tx.UpdateCustomerPoints(ctx, customer.ID, balance); err != nil {
				return domain.Order{}, err
			}
		}
	}

	order := domain.Order{
		ID:             orderID,
		Customer:       ref,
		CashierID:      cashier.ID,
		Items:          items,
		Subtotal:       subtotal,
		Discount:       discount,
		Tax:            tax,
		Total:          total,
		Status:         domain.OrderStatusCompleted,
		PaymentMethod:  req.PaymentMethod,
		PointsRedeemed: pointsRedeemed,
		PointsEarned:   pointsEarned,
		CreatedAt:      now,
		Payment: domain.Payment{
			ID:            xid.New("pay"),
			OrderID:       orderID,
			Method:        req.PaymentMethod,
			Amount:        total,
			Status:        domain.PaymentStatusCompleted,
			TransactionID: strings.TrimSpace(req.TransactionID),
			CreatedAt:     now,
		},
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func validateOrderRequest(req domain.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return domain.Validation("order must contain at least one item")
	}
	for i, line := range req.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return domain.Validation("item %d: product_id is required", i+1)
		}
		if line.Quantity <= 0 {
			return domain.Validation("item %d: quantity must be positive", i+1)
		}
	}
	if !req.PaymentMethod.Valid() {
		return domain.Validation("unsupported payment method: %q", req.PaymentMethod)
	}
	if req.Discount.IsNegative() {
		return domain.Validation("discount cannot be negative")
	}
	if !domain.HasCents(req.Discount) {
		return domain.Validation("discount must have at most 2 decimal places")
	}
	if req.PointsToRedeem < 0 {
		return domain.Validation("points_to_redeem cannot be negative")
	}
	return nil
}

// orderTotals floors the discounted amount at zero, then rounds tax and
// total half-up to cents.
func orderTotals(subtotal decimal.Decimal, discount decimal.Decimal, taxRate decimal.Decimal) (tax decimal.Decimal, total decimal.Decimal) {
	afterDiscount := subtotal.Sub(discount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}
	tax = afterDiscount.Mul(taxRate).Round(2)
	total = afterDiscount.Add(tax).Round(2)
	return tax, total
}

// CancelOrder restores the stock of a completed order and marks its payment
// failed. Reward points are left as they are.
func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, domain.Validation("order id is required")
	}

	var cancelled domain.Order
	skipped := make([]string, 0)
	err := s.repo.RunInTx(ctx, func(tx store.Tx) error {
		skipped = skipped[:0]
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.NotFound("Order", orderID)
			}
			return err
		}
		switch order.Status {
		case domain.OrderStatusCancelled:
			return domain.ErrAlreadyCancelled
		case domain.OrderStatusRefunded:
			return domain.ErrCannotCancelRefunded
		}

		now := s.clock()
		for _, item := range order.Items {
			inv, err := tx.GetInventoryForUpdate(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					skipped = append(skipped, item.ProductID)
					continue
				}
				return err
			}
			inv.Quantity += item.Quantity
			inv.UpdatedAt = now
			if err := tx.SaveInventory(ctx, *inv); err != nil {
				return err
			}
		}

		if err := tx.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
			return err
		}
		if err := tx.UpdatePaymentStatus(ctx, order.ID, domain.PaymentStatusFailed); err != nil {
			return err
		}

		order.Status = domain.OrderStatusCancelled
		order.Payment.Status = domain.PaymentStatusFailed
		cancelled = *order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	for _, productID := range skipped {
		s.logger.Warn("inventory missing on cancel, restock skipped",
			zap.String("order_id", cancelled.ID),
			zap.String("product_id", productID),
		)
	}

	metrics.OrdersCancelled.Inc()
	s.logger.Info("order cancelled",
		zap.String("order_id", cancelled.ID),
		zap.String("by", actor.Username),
		zap.String("total", cancelled.Total.StringFixed(2)),
	)
	// overwrite rather than evict so a concurrent read-through cannot
	// repopulate the entry with the pre-cancel status
	s.cacheOrder(ctx, &cancelled)
	s.logAudit(ctx, actor, "order_cancel", "order", cancelled.ID, fmt.Sprintf("restocked_lines=%d,skipped_lines=%d", len(cancelled.Items)-len(skipped), len(skipped)))

	return cancelled, nil
}

// GetOrder reads through the order cache.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, domain.Validation("order id is required")
	}

	if cached, ok, err := s.orders.Get(ctx, orderID); err != nil {
		s.logger.Warn("order cache read failed", zap.String("order_id", orderID), zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Order{}, domain.NotFound("Order", orderID)
		}
		return domain.Order{}, err
	}
	s.cacheOrder(ctx, order)
	return *order, nil
}

func (s *Service) cacheOrder(ctx context.Context, order *domain.Order) {
	if err := s.orders.Set(ctx, order, s.settings.OrderCacheTTL); err != nil {
		s.logger.Warn("order cache write failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// OrderStats covers [from, to). A zero to means now.
func (s *Service) OrderStats(ctx context.Context, from time.Time, to time.Time) (domain.OrderStats, error) {
	if to.IsZero() {
		to = s.clock()
	}
	if !from.Before(to) {
		return domain.OrderStats{}, domain.Validation("from must be before to")
	}
	return s.repo.OrderStats(ctx, from.UTC(), to.UTC())
}
