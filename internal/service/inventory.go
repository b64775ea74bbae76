package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
)

func (s *Service) GetInventory(ctx context.Context, productID string) (domain.Inventory, error) {
	productID = strings.TrimSpace(productID)
	inv, err := s.repo.GetInventory(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Inventory{}, domain.NotFound("Inventory", productID)
		}
		return domain.Inventory{}, err
	}
	return *inv, nil
}

// UpdateStock overwrites quantity and threshold of an existing inventory row.
// It never creates one.
func (s *Service) UpdateStock(ctx context.Context, actor domain.Actor, productID string, req domain.InventoryUpdateRequest) (domain.Inventory, error) {
	productID = strings.TrimSpace(productID)
	if req.Quantity < 0 {
		return domain.Inventory{}, domain.Validation("quantity cannot be negative")
	}
	if req.LowStockThreshold < 0 {
		return domain.Inventory{}, domain.Validation("low stock threshold cannot be negative")
	}

	var updated domain.Inventory
	err := s.repo.RunInTx(ctx, func(tx store.Tx) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.NotFound("Product", productID)
			}
			return err
		}

		inv, err := tx.GetInventoryForUpdate(ctx, product.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.NotFound("Inventory", product.ID)
			}
			return err
		}

		inv.Quantity = req.Quantity
		inv.LowStockThreshold = req.LowStockThreshold
		inv.UpdatedBy = actor.Username
		inv.UpdatedAt = s.clock()
		if err := tx.SaveInventory(ctx, *inv); err != nil {
			return err
		}
		inv.ProductName = product.Name
		updated = *inv
		return nil
	})
	if err != nil {
		return domain.Inventory{}, err
	}

	s.logAudit(ctx, actor, "stock_update", "inventory", updated.ProductID, fmt.Sprintf("quantity=%d,low_stock_threshold=%d", updated.Quantity, updated.LowStockThreshold))
	return updated, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.Inventory, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) InventoryStats(ctx context.Context) (domain.InventoryStats, error) {
	return s.repo.InventoryStats(ctx)
}
