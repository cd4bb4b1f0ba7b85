package notify

import (
	"sync"
	"time"

	"ticket-gate/models"
)

// Event is one state-change notification pushed to a queued user.
type Event struct {
	Type    models.QueueEventType
	Payload interface{}
}

// Channel is a one-way push handle for a single (resource, user) pair. It is
// owned by this server instance only; a user reconnecting elsewhere forfeits
// it. A channel self-completes after an inactivity timeout.
type Channel struct {
	key     string
	events  chan Event
	done    chan struct{}
	timeout time.Duration

	once  sync.Once
	mu    sync.Mutex
	timer *time.Timer

	onComplete func()
}

func newChannel(key string, timeout time.Duration, onComplete func()) *Channel {
	c := &Channel{
		key:        key,
		events:     make(chan Event, 16),
		done:       make(chan struct{}),
		timeout:    timeout,
		onComplete: onComplete,
	}
	c.timer = time.AfterFunc(timeout, c.Complete)
	return c
}

// Events is the consumer side: the HTTP layer drains it into the wire.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Done is closed when the channel has completed.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// send delivers best-effort: a full buffer or a completed channel counts as
// a delivery failure and the channel is torn down by the registry.
func (c *Channel) send(eventType models.QueueEventType, payload interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.events <- Event{Type: eventType, Payload: payload}:
		c.touch()
		return true
	default:
		return false
	}
}

func (c *Channel) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer.Reset(c.timeout)
}

// Complete closes the channel. Completing an already-completed channel is a
// no-op.
func (c *Channel) Complete() {
	c.once.Do(func() {
		c.mu.Lock()
		c.timer.Stop()
		c.mu.Unlock()

		close(c.done)
		if c.onComplete != nil {
			c.onComplete()
		}
	})
}
