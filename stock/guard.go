package stock

import (
	"context"
	"fmt"

	"ticket-gate/config"
	"ticket-gate/lock"
)

// Guard performs the bounded decrement of a shared stock counter. All
// implementations keep the same observable invariant: concurrent Decrease
// calls never drive the remaining quantity negative, and the final remaining
// equals the initial value minus the sum of successful requests.
type Guard interface {
	// Decrease fails with *status.InsufficientStockError when quantity
	// exceeds the remaining stock, leaving the record unchanged, and with
	// status.ErrStockNotFound when no record exists for the resource.
	Decrease(ctx context.Context, resourceID string, quantity int) error
}

// NewGuard selects the concurrency-control strategy once at startup.
func NewGuard(strategy string, store Store, locker *lock.Locker) (Guard, error) {
	switch strategy {
	case config.StrategyOptimistic:
		return NewOptimisticGuard(store), nil
	case config.StrategyPessimistic:
		return NewPessimisticGuard(store), nil
	case config.StrategyDistributed:
		return NewDistributedGuard(store, locker), nil
	case config.StrategyInProcess:
		return NewMutexGuard(store), nil
	default:
		return nil, fmt.Errorf("stock: unknown guard strategy %q", strategy)
	}
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("stock: quantity must be positive, got %d", quantity)
	}
	return nil
}
