package services

import (
	"context"
	"log"

	"ticket-gate/monitoring"
	"ticket-gate/status"
	"ticket-gate/stock"

	"github.com/shopspring/decimal"
)

// PurchaseService gates the stock mutation behind processing-set membership
// and guarantees the queue slot is released whatever the decrement does.
type PurchaseService struct {
	orchestrator *Orchestrator
	guard        stock.Guard
	store        stock.Store
	monitor      *monitoring.Monitor
	strategy     string
}

func NewPurchaseService(orchestrator *Orchestrator, guard stock.Guard, store stock.Store, monitor *monitoring.Monitor, strategy string) *PurchaseService {
	return &PurchaseService{
		orchestrator: orchestrator,
		guard:        guard,
		store:        store,
		monitor:      monitor,
		strategy:     strategy,
	}
}

// Purchase verifies live processing membership, decrements the stock through
// the configured guard, and always releases the user's slot afterwards. The
// membership check is the authorization boundary; the earlier can-enter
// hints are advisory only.
func (s *PurchaseService) Purchase(ctx context.Context, resourceID, userID string, quantity int) (err error) {
	inProcessing, err := s.orchestrator.IsInProcessing(ctx, resourceID, userID)
	if err != nil {
		return err
	}
	if !inProcessing {
		return &status.QueueAccessDeniedError{ResourceID: resourceID, UserID: userID}
	}

	// The slot must be released on every exit path of the decrement,
	// otherwise a failed purchase would block the line forever.
	defer func() {
		if cleanupErr := s.orchestrator.OnPurchaseComplete(ctx, resourceID, userID); cleanupErr != nil {
			log.Printf("purchase: backfill after purchase failed, resource=%s user=%s: %v",
				resourceID, userID, cleanupErr)
			if err == nil {
				err = cleanupErr
			}
		}
	}()

	if err := s.guard.Decrease(ctx, resourceID, quantity); err != nil {
		s.monitor.TrackStockDecrement(s.strategy, "error")
		return err
	}
	s.monitor.TrackStockDecrement(s.strategy, "success")

	if rec, recErr := s.store.Get(ctx, resourceID); recErr == nil {
		total := rec.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		log.Printf("purchase: user=%s resource=%s quantity=%d total=%s remaining=%d",
			userID, resourceID, quantity, total.StringFixed(2), rec.RemainingQuantity)
	}

	return nil
}
