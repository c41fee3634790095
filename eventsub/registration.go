package eventsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MindfulMinun/twitch-api/internal/metrics"
)

// Event is one delivered notification: the decoded payload plus the
// subscription snapshot it arrived with.
type Event struct {
	Type         string
	Payload      any
	Subscription Subscription
}

// Registration is the consumer-side view of one EventSub subscription. Its
// event stream yields every notification delivered for the subscription id,
// in delivery order. The snapshot returned by Subscription refreshes as
// notifications arrive; the id itself never changes.
type Registration struct {
	receiver *Receiver

	mu  sync.RWMutex
	sub Subscription
}

// Subscription returns the most recent server-provided snapshot.
func (reg *Registration) Subscription() Subscription {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.sub
}

// ID returns the stable subscription identifier.
func (reg *Registration) ID() string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.sub.ID
}

func (reg *Registration) snapshot(sub Subscription) {
	reg.mu.Lock()
	reg.sub = sub
	reg.mu.Unlock()
}

// Events attaches a live tail to the notification log and returns a channel
// of this registration's events. The channel starts at "now": notifications
// delivered before the call are not replayed. It closes when ctx is done or
// the receiver is closed. Each call attaches independently.
//
// Revocations carry no payload; they refresh the snapshot (observable via
// Subscription) without emitting an event.
func (reg *Registration) Events(ctx context.Context) <-chan Event {
	cur := reg.receiver.queue.subscribe()
	out := make(chan Event)

	metrics.ActiveRegistrations.Inc()

	go func() {
		defer close(out)
		defer metrics.ActiveRegistrations.Dec()

		for {
			it, ok := cur.next(ctx)
			if !ok {
				return
			}
			if it.subscription.ID != reg.ID() {
				continue
			}

			reg.snapshot(it.subscription)
			if it.event == nil {
				continue
			}

			payload, err := decodeEvent(it.subType, it.event)
			if err != nil {
				slog.Error("Failed to decode event payload", "subscription_id", it.subscription.ID, "type", it.subType, "error", err)
				continue
			}

			select {
			case out <- Event{Type: it.subType, Payload: payload, Subscription: it.subscription}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
