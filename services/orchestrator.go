package services

import (
	"context"
	"log"

	"ticket-gate/models"
	"ticket-gate/monitoring"
	"ticket-gate/notify"
	"ticket-gate/queue"
)

// Orchestrator drives the admission state machine per (resource, user):
// NOT_IN_QUEUE -> WAITING -> {CAN_ENTER | PROCESSING} -> NOT_IN_QUEUE.
// It owns the notification channels and tears them down itself.
type Orchestrator struct {
	queue       *queue.Service
	registry    *notify.Registry
	broadcaster *notify.Broadcaster
	monitor     *monitoring.Monitor
}

func NewOrchestrator(queueService *queue.Service, registry *notify.Registry, broadcaster *notify.Broadcaster, monitor *monitoring.Monitor) *Orchestrator {
	return &Orchestrator{
		queue:       queueService,
		registry:    registry,
		broadcaster: broadcaster,
		monitor:     monitor,
	}
}

// RegisterAndSubscribe puts the user into the waiting queue and opens its
// notification channel, replacing any stale channel for the same key. When
// the processing set has room the user may be promoted immediately;
// otherwise it receives its initial position on the channel. Duplicate
// registrations surface *status.AlreadyInQueueError.
func (o *Orchestrator) RegisterAndSubscribe(ctx context.Context, resourceID, userID string) (*notify.Channel, error) {
	position, err := o.queue.Enqueue(ctx, resourceID, userID)
	if err != nil {
		o.monitor.TrackQueueOperation("enqueue", resourceID, "error")
		return nil, err
	}
	o.monitor.TrackQueueOperation("enqueue", resourceID, "success")

	ch := o.registry.Create(resourceID, userID)

	hasCapacity, err := o.queue.HasCapacity(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if hasCapacity {
		if err := o.promoteAndNotify(ctx, resourceID); err != nil {
			return nil, err
		}
	} else {
		o.registry.Send(resourceID, userID, models.EventQueuePosition, models.QueuePositionEvent{Position: position})
	}

	return ch, nil
}

// OnPurchaseComplete removes the user from the processing set and backfills
// the freed slot. It runs on success, failure and cancellation of the
// purchase alike; skipping it would stall the line.
func (o *Orchestrator) OnPurchaseComplete(ctx context.Context, resourceID, userID string) error {
	if err := o.queue.Complete(ctx, resourceID, userID); err != nil {
		return err
	}
	o.registry.Complete(resourceID, userID)
	o.monitor.TrackQueueOperation("complete", resourceID, "success")

	return o.promoteAndNotify(ctx, resourceID)
}

// OnCancel removes the user from both structures, closes its channel and
// backfills. A user in neither structure surfaces *status.NotInQueueError.
func (o *Orchestrator) OnCancel(ctx context.Context, resourceID, userID string) error {
	if err := o.queue.Dequeue(ctx, resourceID, userID); err != nil {
		o.monitor.TrackQueueOperation("cancel", resourceID, "error")
		return err
	}
	o.registry.Complete(resourceID, userID)
	o.monitor.TrackQueueOperation("cancel", resourceID, "success")

	return o.promoteAndNotify(ctx, resourceID)
}

func (o *Orchestrator) IsInProcessing(ctx context.Context, resourceID, userID string) (bool, error) {
	return o.queue.IsInProcessing(ctx, resourceID, userID)
}

// Info returns the polling snapshot for a user.
func (o *Orchestrator) Info(ctx context.Context, resourceID, userID string) (models.QueueInfo, error) {
	return o.queue.Info(ctx, resourceID, userID)
}

// Promote runs one promotion round without completing anyone, used by the
// admin surface and the recovery path after a restart.
func (o *Orchestrator) Promote(ctx context.Context, resourceID string) error {
	return o.promoteAndNotify(ctx, resourceID)
}

// promoteAndNotify moves the next batch of waiting users into the
// processing set, tells each one it has entered (the channel's job is then
// done and is closed), and refreshes positions for everyone still waiting.
// Notification failures are logged by the registry and never abort the
// transition.
func (o *Orchestrator) promoteAndNotify(ctx context.Context, resourceID string) error {
	promoted, err := o.queue.PermitProcessing(ctx, resourceID)
	if err != nil {
		return err
	}
	o.monitor.TrackPromotion(resourceID, len(promoted))

	for _, userID := range promoted {
		o.registry.Send(resourceID, userID, models.EventEnter, models.EnterProcessing())
		o.broadcaster.Publish(resourceID, userID, models.EventEnter, models.EnterProcessing())
		o.registry.Complete(resourceID, userID)
	}

	waiting, err := o.queue.WaitingUsers(ctx, resourceID)
	if err != nil {
		// Positions go stale until the next promotion; nothing to unwind.
		log.Printf("orchestrator: failed listing waiting users for %s: %v", resourceID, err)
		return nil
	}
	for i, userID := range waiting {
		event := models.QueuePositionEvent{Position: int64(i)}
		o.registry.Send(resourceID, userID, models.EventQueuePosition, event)
		o.broadcaster.Publish(resourceID, userID, models.EventQueuePosition, event)
	}

	return nil
}

// RefreshPositions re-broadcasts the current ordering to all waiting users
// of every active resource. Run periodically so clients that missed an event
// converge.
func (o *Orchestrator) RefreshPositions(ctx context.Context, resourceID string) {
	waiting, err := o.queue.WaitingUsers(ctx, resourceID)
	if err != nil {
		log.Printf("orchestrator: position refresh failed for %s: %v", resourceID, err)
		return
	}
	for i, userID := range waiting {
		o.registry.Send(resourceID, userID, models.EventQueuePosition, models.QueuePositionEvent{Position: int64(i)})
	}
}

// Shutdown completes every open channel on this instance.
func (o *Orchestrator) Shutdown() {
	o.registry.CloseAll()
}
