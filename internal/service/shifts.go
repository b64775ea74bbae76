package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/metrics"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/xid"
)

// OpenShift starts a cash drawer session for the actor. A cashier has at most
// one open shift; the store enforces it as well so concurrent opens cannot
// both succeed.
func (s *Service) OpenShift(ctx context.Context, actor domain.Actor, openingFloat decimal.Decimal) (domain.Shift, error) {
	if openingFloat.IsNegative() {
		return domain.Shift{}, domain.Validation("opening float cannot be negative")
	}
	if !domain.HasCents(openingFloat) {
		return domain.Shift{}, domain.Validation("opening float must have at most 2 decimal places")
	}

	var opened domain.Shift
	err := s.repo.RunInTx(ctx, func(tx store.Tx) error {
		cashier, err := resolveCashier(ctx, tx, actor)
		if err != nil {
			return err
		}

		if _, err := tx.GetOpenShiftForUpdate(ctx, cashier.ID); err == nil {
			return domain.ErrShiftAlreadyOpen
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		shift := domain.Shift{
			ID:              xid.New("shift"),
			CashierID:       cashier.ID,
			CashierUsername: cashier.Username,
			OpeningFloat:    openingFloat,
			CashSales:       decimal.Zero,
			ExpectedCash:    openingFloat,
			Status:          domain.ShiftStatusOpen,
			OpenedAt:        s.clock(),
		}
		if err := tx.InsertShift(ctx, shift); err != nil {
			return err
		}
		opened = shift
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.Shift{}, domain.ErrShiftAlreadyOpen
		}
		return domain.Shift{}, err
	}

	s.logger.Info("shift opened",
		zap.String("shift_id", opened.ID),
		zap.String("cashier", opened.CashierUsername),
		zap.String("opening_float", opened.OpeningFloat.StringFixed(2)),
	)
	s.logAudit(ctx, actor, "shift_open", "shift", opened.ID, fmt.Sprintf("opening_float=%s", opened.OpeningFloat.StringFixed(2)))

	return opened, nil
}

// GetCurrentShift returns the open shift with cash sales and expected cash
// computed up to now. Nothing is written.
func (s *Service) GetCurrentShift(ctx context.Context, actor domain.Actor) (domain.Shift, error) {
	cashier, err := s.lookupCashier(ctx, actor)
	if err != nil {
		return domain.Shift{}, err
	}

	shift, err := s.repo.GetOpenShift(ctx, cashier.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Shift{}, domain.ErrNoOpenShift
		}
		return domain.Shift{}, err
	}

	cashSales, err := s.repo.SumCashPayments(ctx, cashier.ID, shift.OpenedAt, s.clock())
	if err != nil {
		return domain.Shift{}, err
	}
	shift.CashSales = cashSales
	shift.ExpectedCash = shift.OpeningFloat.Add(cashSales)
	return *shift, nil
}

// CloseShift reconciles the counted cash against the expected cash and
// closes the shift. A positive difference is a surplus.
func (s *Service) CloseShift(ctx context.Context, actor domain.Actor, countedCash decimal.Decimal) (domain.Shift, error) {
	if countedCash.IsNegative() {
		return domain.Shift{}, domain.Validation("counted cash cannot be negative")
	}
	if !domain.HasCents(countedCash) {
		return domain.Shift{}, domain.Validation("counted cash must have at most 2 decimal places")
	}

	var closed domain.Shift
	err := s.repo.RunInTx(ctx, func(tx store.Tx) error {
		cashier, err := resolveCashier(ctx, tx, actor)
		if err != nil {
			return err
		}

		shift, err := tx.GetOpenShiftForUpdate(ctx, cashier.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrNoOpenShift
			}
			return err
		}

		now := s.clock()
		cashSales, err := tx.SumCashPayments(ctx, cashier.ID, shift.OpenedAt, now)
		if err != nil {
			return err
		}

		shift.CashSales = cashSales
		shift.ExpectedCash = shift.OpeningFloat.Add(cashSales)
		shift.CountedCash = decimal.NewNullDecimal(countedCash)
		shift.Difference = decimal.NewNullDecimal(countedCash.Sub(shift.ExpectedCash))
		shift.Status = domain.ShiftStatusClosed
		shift.ClosedAt = &now
		if err := tx.UpdateShift(ctx, *shift); err != nil {
			return err
		}
		closed = *shift
		return nil
	})
	if err != nil {
		return domain.Shift{}, err
	}

	difference := closed.Difference.Decimal
	metrics.ShiftCashDifference.Observe(difference.InexactFloat64())
	s.logger.Info("shift closed",
		zap.String("shift_id", closed.ID),
		zap.String("cashier", closed.CashierUsername),
		zap.String("expected_cash", closed.ExpectedCash.StringFixed(2)),
		zap.String("counted_cash", countedCash.StringFixed(2)),
		zap.String("difference", difference.StringFixed(2)),
	)
	s.logAudit(ctx, actor, "shift_close", "shift", closed.ID, fmt.Sprintf(
		"expected=%s,counted=%s,difference=%s",
		closed.ExpectedCash.StringFixed(2),
		countedCash.StringFixed(2),
		difference.StringFixed(2),
	))

	return closed, nil
}
