package notify

import (
	"testing"

	"log/slog"
)

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(slog.Default())
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Broadcast(Event{Type: EventNewsInserted, Count: 5})

	for _, sub := range []*Subscriber{a, b} {
		select {
		case ev := <-sub.Events():
			if ev.Count != 5 || ev.Type != EventNewsInserted {
				t.Errorf("unexpected event: %+v", ev)
			}
		default:
			t.Error("subscriber did not receive event")
		}
	}
}

func TestBroadcastDropsSlowSubscriber(t *testing.T) {
	hub := NewHub(slog.Default())
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	// Fill the slow subscriber's buffer without draining.
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Broadcast(Event{Type: EventNewsInserted, Count: i + 1})
		// Keep the fast subscriber drained so it survives.
		for len(fast.Events()) > 0 {
			<-fast.Events()
		}
	}

	if hub.Len() != 1 {
		t.Fatalf("expected slow subscriber dropped, hub has %d subscribers", hub.Len())
	}

	// Dropped subscriber's channel is closed after its buffer drains.
	drained := 0
	for range slow.Events() {
		drained++
	}
	if drained != subscriberBuffer {
		t.Errorf("expected %d buffered events before close, got %d", subscriberBuffer, drained)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(slog.Default())
	sub := hub.Subscribe()

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // second call must not panic on closed channel

	if hub.Len() != 0 {
		t.Errorf("expected empty hub, got %d", hub.Len())
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Broadcast(Event{Type: EventNewsInserted, Count: 1}) // must not panic
}
