package queue

import (
	"context"

	"ticket-gate/lock"
	"ticket-gate/models"
	"ticket-gate/status"
)

// Service combines the waiting queue and processing set into the admission
// gate for one shared store. All mutation of queue state goes through these
// operations.
type Service struct {
	waiting    *WaitingQueue
	processing *ProcessingSet
	locker     *lock.Locker
}

func NewService(waiting *WaitingQueue, processing *ProcessingSet, locker *lock.Locker) *Service {
	return &Service{
		waiting:    waiting,
		processing: processing,
		locker:     locker,
	}
}

// Enqueue registers the user into the waiting queue and returns its 0-based
// position. The duplicate check and the add run under a per-(resource,user)
// lock, closing the check-then-act race; concurrent registrations of the
// same user yield exactly one success.
func (s *Service) Enqueue(ctx context.Context, resourceID, userID string) (int64, error) {
	var position int64

	err := s.locker.WithLock(ctx, UserLockKey(resourceID, userID), func() error {
		isProcessing, err := s.processing.Contains(ctx, resourceID, userID)
		if err != nil {
			return err
		}
		if isProcessing {
			return &status.AlreadyInQueueError{ResourceID: resourceID, UserID: userID}
		}

		isWaiting, err := s.waiting.Contains(ctx, resourceID, userID)
		if err != nil {
			return err
		}
		if isWaiting {
			return &status.AlreadyInQueueError{ResourceID: resourceID, UserID: userID}
		}

		if err := s.waiting.Add(ctx, resourceID, userID); err != nil {
			return err
		}

		rank, err := s.waiting.Rank(ctx, resourceID, userID)
		if err != nil {
			return err
		}
		if rank != nil {
			position = *rank
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// Position returns the current waiting rank, or nil when not waiting.
func (s *Service) Position(ctx context.Context, resourceID, userID string) (*int64, error) {
	return s.waiting.Rank(ctx, resourceID, userID)
}

// CanEnter is a lock-free advisory hint: true when the user is already
// processing, or its rank fits within the currently free slots. It may be
// stale by design; only the gated purchase path is authoritative.
func (s *Service) CanEnter(ctx context.Context, resourceID, userID string) (bool, error) {
	isProcessing, err := s.processing.Contains(ctx, resourceID, userID)
	if err != nil {
		return false, err
	}
	if isProcessing {
		return true, nil
	}

	rank, err := s.waiting.Rank(ctx, resourceID, userID)
	if err != nil {
		return false, err
	}
	if rank == nil {
		return false, nil
	}

	remaining, err := s.processing.RemainingCapacity(ctx, resourceID)
	if err != nil {
		return false, err
	}
	return *rank < remaining, nil
}

// HasCapacity reports whether the processing set has a free slot. Advisory,
// same consistency level as CanEnter.
func (s *Service) HasCapacity(ctx context.Context, resourceID string) (bool, error) {
	return s.processing.HasCapacity(ctx, resourceID)
}

// PermitProcessing moves up to remainingCapacity lowest-ranked waiting users
// into the processing set and returns them in arrival order. All promotion
// decisions for a resource serialize through one lock key, which is the only
// thing keeping the capacity invariant.
func (s *Service) PermitProcessing(ctx context.Context, resourceID string) ([]string, error) {
	var promoted []string

	err := s.locker.WithLock(ctx, PromoteLockKey(resourceID), func() error {
		remaining, err := s.processing.RemainingCapacity(ctx, resourceID)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			return nil
		}

		users, err := s.waiting.PollTop(ctx, resourceID, remaining)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return nil
		}

		if err := s.processing.AddAll(ctx, resourceID, users); err != nil {
			return err
		}
		promoted = users
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// Complete removes a finished user from the processing set.
func (s *Service) Complete(ctx context.Context, resourceID, userID string) error {
	return s.processing.Remove(ctx, resourceID, userID)
}

// Dequeue removes the user from both structures. A user present in neither
// yields *status.NotInQueueError.
func (s *Service) Dequeue(ctx context.Context, resourceID, userID string) error {
	isWaiting, err := s.waiting.Contains(ctx, resourceID, userID)
	if err != nil {
		return err
	}
	isProcessing, err := s.processing.Contains(ctx, resourceID, userID)
	if err != nil {
		return err
	}
	if !isWaiting && !isProcessing {
		return &status.NotInQueueError{ResourceID: resourceID, UserID: userID}
	}

	if err := s.waiting.Remove(ctx, resourceID, userID); err != nil {
		return err
	}
	return s.processing.Remove(ctx, resourceID, userID)
}

func (s *Service) IsInProcessing(ctx context.Context, resourceID, userID string) (bool, error) {
	return s.processing.Contains(ctx, resourceID, userID)
}

// WaitingUsers returns the current line in arrival order.
func (s *Service) WaitingUsers(ctx context.Context, resourceID string) ([]string, error) {
	return s.waiting.All(ctx, resourceID)
}

// Info is the polling snapshot: position, advisory can-enter hint, and the
// derived status.
func (s *Service) Info(ctx context.Context, resourceID, userID string) (models.QueueInfo, error) {
	position, err := s.Position(ctx, resourceID, userID)
	if err != nil {
		return models.QueueInfo{}, err
	}
	canEnter, err := s.CanEnter(ctx, resourceID, userID)
	if err != nil {
		return models.QueueInfo{}, err
	}

	return models.QueueInfo{
		ResourceID: resourceID,
		UserID:     userID,
		Position:   position,
		CanEnter:   canEnter,
		Status:     models.DeriveStatus(position, canEnter),
	}, nil
}
