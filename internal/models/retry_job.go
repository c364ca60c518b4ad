package models

import (
	"time"
)

// RetryStage identifies which ingestion step a retry job re-invokes.
type RetryStage string

const (
	StageFeedFetch      RetryStage = "feed_fetch"
	StageArticleExtract RetryStage = "article_extract"
)

// RetryOutcome distinguishes how a resolved job ended. It is empty while
// the job is still pending.
type RetryOutcome string

const (
	OutcomeSucceeded RetryOutcome = "succeeded"
	OutcomeAbandoned RetryOutcome = "abandoned"
)

// MaxRetryDelay caps exponential backoff between retry attempts.
const MaxRetryDelay = time.Hour

// RetryJob is one deferred unit of ingestion work. Jobs are never deleted,
// only marked resolved, so the table doubles as an audit trail.
//
// At most one unresolved job exists per (stage, target URL) pair.
type RetryJob struct {
	ID          string       `json:"id"`
	Stage       RetryStage   `json:"stage"`
	SourceName  string       `json:"source_name"`
	TargetURL   string       `json:"target_url"`
	Payload     string       `json:"payload"`
	RetryCount  int          `json:"retry_count"`
	MaxRetries  int          `json:"max_retries"`
	NextRetryAt time.Time    `json:"next_retry_at"`
	Resolved    bool         `json:"resolved"`
	Outcome     RetryOutcome `json:"outcome,omitempty"`
	LastError   *string      `json:"last_error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// BackoffDelay computes the wait before retry attempt n (1-based):
// initial * 2^(n-1), capped at MaxRetryDelay.
func BackoffDelay(initial time.Duration, retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}

	delay := initial
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	if delay > MaxRetryDelay {
		return MaxRetryDelay
	}
	return delay
}

// MarkSucceeded resolves the job after a successful retry.
func (j *RetryJob) MarkSucceeded(now time.Time) {
	j.Resolved = true
	j.Outcome = OutcomeSucceeded
	j.LastError = nil
	j.UpdatedAt = now
}

// MarkFailed records another failed attempt. The job is abandoned once the
// retry counter reaches MaxRetries; otherwise the next attempt is scheduled
// with exponential backoff.
func (j *RetryJob) MarkFailed(now time.Time, initialDelay time.Duration, cause string) {
	if cause == "" {
		cause = "unknown retry error"
	}
	clamped := ClampError(cause)

	j.RetryCount++
	j.LastError = &clamped
	j.UpdatedAt = now

	if j.RetryCount >= j.MaxRetries {
		j.Resolved = true
		j.Outcome = OutcomeAbandoned
		return
	}

	j.NextRetryAt = now.Add(BackoffDelay(initialDelay, j.RetryCount))
}
