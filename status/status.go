package status

import (
	"errors"
	"fmt"
)

var (
	// ErrStockNotFound is returned when no stock record exists for a resource.
	ErrStockNotFound = errors.New("stock: stock record not found")

	// ErrTooManyRetries is returned by the optimistic stock guard when the
	// retry budget is exhausted. It is a server-side failure, distinct from
	// an insufficient-stock conflict.
	ErrTooManyRetries = errors.New("stock: too many retries")
)

// AlreadyInQueueError reports a registration attempt by a user that is
// already waiting or already processing. Surfaced as a conflict.
type AlreadyInQueueError struct {
	ResourceID string
	UserID     string
}

func (e *AlreadyInQueueError) Error() string {
	return fmt.Sprintf("queue: user %s already in queue for resource %s", e.UserID, e.ResourceID)
}

// QueueAccessDeniedError reports a purchase attempt by a user that is not a
// processing member. Surfaced as forbidden.
type QueueAccessDeniedError struct {
	ResourceID string
	UserID     string
}

func (e *QueueAccessDeniedError) Error() string {
	return fmt.Sprintf("queue: user %s is not in processing for resource %s", e.UserID, e.ResourceID)
}

// NotInQueueError reports a status or cancel call for a user with no queue
// record. Surfaced as not-found.
type NotInQueueError struct {
	ResourceID string
	UserID     string
}

func (e *NotInQueueError) Error() string {
	return fmt.Sprintf("queue: user %s not found in queue for resource %s", e.UserID, e.ResourceID)
}

// LockAcquisitionError reports that a distributed lock was not obtained
// within the wait window. The guarded action never ran.
type LockAcquisitionError struct {
	Key string
}

func (e *LockAcquisitionError) Error() string {
	return fmt.Sprintf("lock: failed to acquire lock, key=%s", e.Key)
}

// InsufficientStockError reports a decrement larger than the remaining
// quantity. The stock record is left unchanged.
type InsufficientStockError struct {
	Remaining int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock: insufficient stock, remaining=%d requested=%d", e.Remaining, e.Requested)
}
