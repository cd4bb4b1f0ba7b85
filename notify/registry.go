package notify

import (
	"log"
	"sync"
	"time"

	"ticket-gate/models"

	"go.uber.org/atomic"
)

// Registry owns every live notification channel of this server instance,
// keyed by (resource, user). Channel state is deliberately not replicated
// across instances.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*Channel
	timeout  time.Duration
	live     atomic.Int64
}

func NewRegistry(channelTimeout time.Duration) *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
		timeout:  channelTimeout,
	}
}

func channelKey(resourceID, userID string) string {
	return resourceID + ":" + userID
}

// Create installs a fresh channel for the key, force-completing any prior
// one first. At most one live channel exists per (resource, user).
func (r *Registry) Create(resourceID, userID string) *Channel {
	key := channelKey(resourceID, userID)

	r.mu.Lock()
	prior := r.channels[key]
	delete(r.channels, key)
	r.mu.Unlock()

	if prior != nil {
		// Already detached from the map, so its completion callback cannot
		// race with the replacement below.
		r.live.Dec()
		prior.Complete()
	}

	ch := newChannel(key, r.timeout, func() {
		r.remove(key)
	})

	r.mu.Lock()
	r.channels[key] = ch
	r.mu.Unlock()
	r.live.Inc()

	return ch
}

// Get returns the live channel for the key, or nil.
func (r *Registry) Get(resourceID, userID string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[channelKey(resourceID, userID)]
}

// Send pushes an event best-effort. A delivery failure removes and discards
// the channel; it is logged and never surfaces to the caller.
func (r *Registry) Send(resourceID, userID string, eventType models.QueueEventType, payload interface{}) {
	ch := r.Get(resourceID, userID)
	if ch == nil {
		return
	}

	if !ch.send(eventType, payload) {
		log.Printf("notify: dropping channel after failed send, resource=%s user=%s type=%s",
			resourceID, userID, eventType)
		ch.Complete()
	}
}

// Complete closes the channel for the key. Completing an absent channel is a
// no-op.
func (r *Registry) Complete(resourceID, userID string) {
	ch := r.Get(resourceID, userID)
	if ch != nil {
		ch.Complete()
	}
}

// Live reports the number of open channels on this instance.
func (r *Registry) Live() int64 {
	return r.live.Load()
}

// CloseAll completes every channel, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		open = append(open, ch)
	}
	r.mu.Unlock()

	for _, ch := range open {
		ch.Complete()
	}
}

func (r *Registry) remove(key string) {
	r.mu.Lock()
	_, present := r.channels[key]
	delete(r.channels, key)
	r.mu.Unlock()

	if present {
		r.live.Dec()
	}
}
