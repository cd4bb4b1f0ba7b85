package stock

import (
	"context"

	"ticket-gate/status"
)

// PessimisticGuard takes an exclusive read lock on the stock row for the
// duration of the transaction; other writers block on the storage engine
// until it commits. No retries are needed.
type PessimisticGuard struct {
	store Store
}

func NewPessimisticGuard(store Store) *PessimisticGuard {
	return &PessimisticGuard{store: store}
}

func (g *PessimisticGuard) Decrease(ctx context.Context, resourceID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	return g.store.Transactional(ctx, func(tx Tx) error {
		rec, err := tx.GetForUpdate(resourceID)
		if err != nil {
			return err
		}
		if rec.RemainingQuantity < quantity {
			return &status.InsufficientStockError{
				Remaining: rec.RemainingQuantity,
				Requested: quantity,
			}
		}

		return tx.Decrement(resourceID, quantity)
	})
}
