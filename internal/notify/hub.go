// Package notify fans out ingestion events to live subscribers. Delivery
// is fire-and-forget: the hub never blocks the caller and never surfaces
// subscriber failures back into the ingestion cycle.
package notify

import (
	"sync"

	"log/slog"
)

// Event is the payload pushed to subscribers when a cycle inserts articles.
type Event struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// EventNewsInserted is the only event type the ingestion core emits.
const EventNewsInserted = "news_inserted"

// subscriberBuffer is how many undelivered events a subscriber may lag
// behind before it is dropped from the set.
const subscriberBuffer = 8

// Subscriber is one live listener. Read events from Events; the channel is
// closed when the subscriber is removed from the hub.
type Subscriber struct {
	ch chan Event
}

// Events returns the subscriber's delivery channel.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Hub is an injected, concurrency-safe subscriber registry owned by the
// process lifecycle.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	logger *slog.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new listener.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes a listener and closes its channel. Safe to call for
// a subscriber the hub has already dropped.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

// Broadcast delivers the event to every current subscriber without
// blocking. A subscriber whose buffer is full cannot keep up and is
// dropped, leaving the rest of the set untouched.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var stale []*Subscriber
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			stale = append(stale, sub)
		}
	}

	for _, sub := range stale {
		h.logger.Warn("dropping slow subscriber", "buffered", len(sub.ch))
		h.remove(sub)
	}
}

// Len reports the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// remove must be called with the lock held.
func (h *Hub) remove(sub *Subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}
