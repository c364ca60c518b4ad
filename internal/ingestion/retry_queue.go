package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sinowatch/sinowatch/internal/models"
)

// RetryConfig parameterizes the failure retry queue.
type RetryConfig struct {
	InitialDelay time.Duration
	MaxAttempts  int
	BatchSize    int
}

// RetryQueue owns the retry-scheduling state machine over a durable job
// store. The queue itself is the retry mechanism: drained jobs are
// re-invoked with a single attempt and either resolved or rescheduled.
type RetryQueue struct {
	store RetryJobStore
	cfg   RetryConfig
	now   func() time.Time
}

// NewRetryQueue builds a queue over the cycle's transactional job store.
func NewRetryQueue(store RetryJobStore, cfg RetryConfig, now func() time.Time) *RetryQueue {
	if now == nil {
		now = time.Now
	}
	return &RetryQueue{store: store, cfg: cfg, now: now}
}

// Enqueue records a failed stage for later retry. Idempotent per
// (stage, target URL): while an unresolved job exists for the pair, a new
// failure is a no-op rather than a duplicate.
func (q *RetryQueue) Enqueue(ctx context.Context, stage models.RetryStage, sourceName, targetURL string, payload map[string]string, cause string) error {
	exists, err := q.store.HasUnresolved(ctx, stage, targetURL)
	if err != nil {
		return fmt.Errorf("check pending retry job: %w", err)
	}
	if exists {
		return nil
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode retry payload: %w", err)
	}

	if cause == "" {
		cause = "unknown ingestion failure"
	}
	clamped := models.ClampError(cause)

	now := q.now().UTC()
	job := &models.RetryJob{
		ID:          uuid.New().String(),
		Stage:       stage,
		SourceName:  sourceName,
		TargetURL:   targetURL,
		Payload:     string(blob),
		RetryCount:  0,
		MaxRetries:  q.cfg.MaxAttempts,
		NextRetryAt: now.Add(q.cfg.InitialDelay),
		LastError:   &clamped,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := q.store.Insert(ctx, job); err != nil {
		return fmt.Errorf("insert retry job: %w", err)
	}
	return nil
}

// Due returns the batch of jobs eligible to run now, oldest-due first.
func (q *RetryQueue) Due(ctx context.Context) ([]models.RetryJob, error) {
	jobs, err := q.store.Due(ctx, q.now().UTC(), q.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list due retry jobs: %w", err)
	}
	return jobs, nil
}

// Complete resolves a job after its retry succeeded.
func (q *RetryQueue) Complete(ctx context.Context, job *models.RetryJob) error {
	job.MarkSucceeded(q.now().UTC())
	if err := q.store.Update(ctx, job); err != nil {
		return fmt.Errorf("resolve retry job: %w", err)
	}
	return nil
}

// Fail records another failed attempt, abandoning the job once its retry
// budget is spent and rescheduling it with exponential backoff otherwise.
func (q *RetryQueue) Fail(ctx context.Context, job *models.RetryJob, cause string) error {
	job.MarkFailed(q.now().UTC(), q.cfg.InitialDelay, cause)
	if err := q.store.Update(ctx, job); err != nil {
		return fmt.Errorf("reschedule retry job: %w", err)
	}
	return nil
}
