package notify

import (
	"log"

	"ticket-gate/models"

	pubnub "github.com/pubnub/go/v7"
)

// Broadcaster mirrors queue events onto a PubNub channel per resource so
// dashboards and clients on other instances can observe the line moving. It
// is best-effort and never authoritative; the Registry channels remain the
// delivery contract.
type Broadcaster struct {
	pn *pubnub.PubNub
}

// NewBroadcaster returns nil when no publish key is configured; a nil
// broadcaster is safe to call.
func NewBroadcaster(publishKey, subscribeKey, userID string) *Broadcaster {
	if publishKey == "" {
		return nil
	}

	cfg := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey

	return &Broadcaster{pn: pubnub.NewPubNub(cfg)}
}

func (b *Broadcaster) Publish(resourceID, userID string, eventType models.QueueEventType, payload interface{}) {
	if b == nil {
		return
	}

	go func() {
		_, _, err := b.pn.Publish().
			Channel("queue-" + resourceID).
			Message(map[string]interface{}{
				"type":    string(eventType),
				"user_id": userID,
				"payload": payload,
			}).
			Execute()
		if err != nil {
			log.Printf("notify: pubnub publish failed, resource=%s user=%s: %v", resourceID, userID, err)
		}
	}()
}
