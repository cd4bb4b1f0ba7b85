package stock

import (
	"context"
	"fmt"
	"time"

	"ticket-gate/status"
)

const (
	optimisticMaxAttempts = 30
	optimisticRetryDelay  = 25 * time.Millisecond
)

// OptimisticGuard does a versioned read-modify-write: conflicting concurrent
// writers are detected at commit by the version check and retried with a
// short delay. The version check lives in storage, so the guard is safe
// across processes.
type OptimisticGuard struct {
	store Store
}

func NewOptimisticGuard(store Store) *OptimisticGuard {
	return &OptimisticGuard{store: store}
}

func (g *OptimisticGuard) Decrease(ctx context.Context, resourceID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	for attempt := 0; attempt < optimisticMaxAttempts; attempt++ {
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

		ok, err := g.store.DecrementWithVersion(ctx, resourceID, quantity, rec.Version)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(optimisticRetryDelay):
		}
	}

	return fmt.Errorf("%w: resource=%s attempts=%d", status.ErrTooManyRetries, resourceID, optimisticMaxAttempts)
}
