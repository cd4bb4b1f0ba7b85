package models

// QueueStatus is derived from presence in the waiting queue and processing
// set. It is never persisted, always recomputed.
type QueueStatus string

const (
	StatusWaiting    QueueStatus = "WAITING"
	StatusCanEnter   QueueStatus = "CAN_ENTER"
	StatusProcessing QueueStatus = "PROCESSING"
	StatusNotInQueue QueueStatus = "NOT_IN_QUEUE"
)

// QueueInfo is the polling snapshot returned to a client: its current
// position (nil when not waiting), whether it may enter, and the derived
// status.
type QueueInfo struct {
	ResourceID string      `json:"resource_id"`
	UserID     string      `json:"user_id"`
	Position   *int64      `json:"position"`
	CanEnter   bool        `json:"can_enter"`
	Status     QueueStatus `json:"status"`
}

// DeriveStatus computes the queue status from a waiting rank and the
// advisory can-enter hint. A nil position with canEnter means the user is a
// processing member.
func DeriveStatus(position *int64, canEnter bool) QueueStatus {
	switch {
	case position == nil && canEnter:
		return StatusProcessing
	case position == nil:
		return StatusNotInQueue
	case canEnter:
		return StatusCanEnter
	default:
		return StatusWaiting
	}
}
