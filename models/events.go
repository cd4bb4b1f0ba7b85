package models

// QueueEventType identifies the two event kinds a notification channel can
// carry.
type QueueEventType string

const (
	EventQueuePosition QueueEventType = "queue-position"
	EventEnter         QueueEventType = "enter"
)

// QueuePositionEvent carries a refreshed 0-based waiting position.
type QueuePositionEvent struct {
	Position int64 `json:"position"`
}

// QueueEnterEvent tells a user it has been promoted into the processing set.
type QueueEnterEvent struct {
	Status QueueStatus `json:"status"`
}

func EnterProcessing() QueueEnterEvent {
	return QueueEnterEvent{Status: StatusProcessing}
}
