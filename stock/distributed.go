package stock

import (
	"context"

	"ticket-gate/lock"
	"ticket-gate/status"
)

// lockKey guards the stock counter of one resource for the distributed
// guard. The prefix keeps it apart from the queue lock keys.
func lockKey(resourceID string) string {
	return "lock:stock:" + resourceID
}

// DistributedGuard wraps a plain read-modify-write in a named distributed
// lock, so it works across independent processes. Writers wait for the lock;
// a wait timeout surfaces as *status.LockAcquisitionError.
type DistributedGuard struct {
	store  Store
	locker *lock.Locker
}

func NewDistributedGuard(store Store, locker *lock.Locker) *DistributedGuard {
	return &DistributedGuard{store: store, locker: locker}
}

func (g *DistributedGuard) Decrease(ctx context.Context, resourceID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	return g.locker.WithLock(ctx, lockKey(resourceID), func() error {
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
	})
}
