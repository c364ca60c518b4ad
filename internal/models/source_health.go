package models

import (
	"time"
)

// SourceStatus is the rolling health classification of one feed source.
type SourceStatus string

const (
	SourceStatusUnknown  SourceStatus = "unknown"
	SourceStatusUp       SourceStatus = "up"
	SourceStatusDegraded SourceStatus = "degraded"
	SourceStatusDown     SourceStatus = "down"
)

// DownThreshold is the consecutive-failure count at which a source is
// reported as down rather than degraded.
const DownThreshold = 3

// SourceHealth is the per-source health row, upserted once per cycle.
type SourceHealth struct {
	SourceName          string       `json:"source_name"`
	FeedURL             string       `json:"feed_url"`
	Status              SourceStatus `json:"last_status"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastError           *string      `json:"last_error,omitempty"`
	LastLatencyMs       *int64       `json:"last_latency_ms,omitempty"`
	LastItemCount       int          `json:"last_items_count"`
	LastCheckedAt       time.Time    `json:"last_checked_at"`
	LastSuccessAt       *time.Time   `json:"last_success_at,omitempty"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// NewSourceHealth returns a fresh row for a source never observed before.
func NewSourceHealth(sourceName, feedURL string) *SourceHealth {
	return &SourceHealth{
		SourceName: sourceName,
		FeedURL:    feedURL,
		Status:     SourceStatusUnknown,
	}
}

// RecordSuccess applies a successful fetch observation: status returns to
// up and the failure counter resets.
func (h *SourceHealth) RecordSuccess(now time.Time, latencyMs int64, itemCount int) {
	h.Status = SourceStatusUp
	h.ConsecutiveFailures = 0
	h.LastError = nil
	h.LastLatencyMs = &latencyMs
	h.LastItemCount = itemCount
	h.LastCheckedAt = now
	h.LastSuccessAt = &now
	h.UpdatedAt = now
}

// RecordFailure applies a failed fetch observation. The source is down once
// the consecutive-failure counter reaches the threshold, degraded before.
func (h *SourceHealth) RecordFailure(now time.Time, latencyMs int64, cause string) {
	if cause == "" {
		cause = "unknown source error"
	}
	clamped := ClampError(cause)

	h.ConsecutiveFailures++
	if h.ConsecutiveFailures >= DownThreshold {
		h.Status = SourceStatusDown
	} else {
		h.Status = SourceStatusDegraded
	}
	h.LastError = &clamped
	h.LastLatencyMs = &latencyMs
	h.LastItemCount = 0
	h.LastCheckedAt = now
	h.UpdatedAt = now
}
