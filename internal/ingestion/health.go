package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/sinowatch/sinowatch/internal/models"
)

// HealthTracker upserts one health row per source from fetch outcomes.
// Purely observational; it never retries anything itself.
type HealthTracker struct {
	store HealthStore
	now   func() time.Time
}

// NewHealthTracker builds a tracker over the cycle's transactional store.
func NewHealthTracker(store HealthStore, now func() time.Time) *HealthTracker {
	if now == nil {
		now = time.Now
	}
	return &HealthTracker{store: store, now: now}
}

// Record applies one fetch outcome to the source's health row.
func (t *HealthTracker) Record(ctx context.Context, result FetchResult) error {
	health, err := t.store.Get(ctx, result.Source.Name)
	if err != nil {
		return fmt.Errorf("load source health: %w", err)
	}
	if health == nil {
		health = models.NewSourceHealth(result.Source.Name, result.Source.FeedURL)
	}
	health.FeedURL = result.Source.FeedURL

	now := t.now().UTC()
	if result.Success {
		health.RecordSuccess(now, result.LatencyMs, len(result.Items))
	} else {
		cause := ""
		if result.Err != nil {
			cause = result.Err.Error()
		}
		health.RecordFailure(now, result.LatencyMs, cause)
	}

	if err := t.store.Upsert(ctx, health); err != nil {
		return fmt.Errorf("upsert source health: %w", err)
	}
	return nil
}
