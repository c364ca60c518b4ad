package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/sinowatch/sinowatch/internal/models"
)

func TestHealthTrackerRecordsOutcomes(t *testing.T) {
	mem := NewMemoryStores()
	var tracker *HealthTracker
	mem.InTx(context.Background(), func(s Stores) error {
		tracker = NewHealthTracker(s.Health, fixedNow)
		return nil
	})
	ctx := context.Background()
	src := Source{Name: "DW News", FeedURL: "https://rss.dw.com/rdf/rss-en-all"}

	ok := FetchResult{Source: src, Success: true, LatencyMs: 240, Items: make([]models.CandidateItem, 7)}
	if err := tracker.Record(ctx, ok); err != nil {
		t.Fatalf("record success: %v", err)
	}

	h := mem.Health("DW News")
	if h == nil {
		t.Fatal("health row not created")
	}
	if h.Status != models.SourceStatusUp {
		t.Errorf("status = %q", h.Status)
	}
	if h.LastItemCount != 7 {
		t.Errorf("item count = %d", h.LastItemCount)
	}
	if h.LastLatencyMs == nil || *h.LastLatencyMs != 240 {
		t.Error("latency not recorded")
	}
	if h.LastSuccessAt == nil || !h.LastSuccessAt.Equal(fixedNow()) {
		t.Error("last success timestamp not recorded")
	}

	fail := FetchResult{Source: src, Success: false, LatencyMs: 5000, Err: errors.New("timeout")}
	for i := 0; i < 2; i++ {
		if err := tracker.Record(ctx, fail); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	h = mem.Health("DW News")
	if h.Status != models.SourceStatusDegraded {
		t.Errorf("after 2 failures status = %q, want degraded", h.Status)
	}
	if h.ConsecutiveFailures != 2 {
		t.Errorf("consecutive failures = %d", h.ConsecutiveFailures)
	}
	if h.LastError == nil || *h.LastError != "timeout" {
		t.Error("failure cause not recorded")
	}

	if err := tracker.Record(ctx, fail); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	h = mem.Health("DW News")
	if h.Status != models.SourceStatusDown {
		t.Errorf("after 3 failures status = %q, want down", h.Status)
	}
	if h.LastSuccessAt == nil {
		t.Error("last success must survive subsequent failures")
	}

	// A single success resets the counter.
	if err := tracker.Record(ctx, ok); err != nil {
		t.Fatalf("record recovery: %v", err)
	}
	h = mem.Health("DW News")
	if h.Status != models.SourceStatusUp || h.ConsecutiveFailures != 0 {
		t.Errorf("recovery not applied: status=%q failures=%d", h.Status, h.ConsecutiveFailures)
	}
	if h.LastError != nil {
		t.Error("error must clear on recovery")
	}
}
