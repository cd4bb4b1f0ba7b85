package stock

import (
	"context"
	"sync"

	"ticket-gate/status"
)

// MutexGuard serializes all callers through one in-memory mutex. It gives no
// protection against concurrent writers in other processes and exists as a
// single-process baseline for comparing the other strategies.
type MutexGuard struct {
	store Store
	mu    sync.Mutex
}

func NewMutexGuard(store Store) *MutexGuard {
	return &MutexGuard{store: store}
}

func (g *MutexGuard) Decrease(ctx context.Context, resourceID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.store.Get(ctx, resourceID)
	if err != nil {
		return err
	}
	if rec.RemainingQuantity < quantity {
		return &status.InsufficientStockError{
			Remaining: rec.RemainingQuantity,
			Requested: quantity,
		}
	}

	return g.store.Decrement(ctx, resourceID, quantity)
}
