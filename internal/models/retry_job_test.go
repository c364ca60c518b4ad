package models

import (
	"strings"
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	initial := 120 * time.Second

	tests := []struct {
		retryCount int
		expected   time.Duration
	}{
		{1, 120 * time.Second},
		{2, 240 * time.Second},
		{3, 480 * time.Second},
		{4, 960 * time.Second},
		{5, 1920 * time.Second},
		{6, 3600 * time.Second}, // capped at one hour
		{7, 3600 * time.Second},
		{20, 3600 * time.Second},
	}

	for _, tt := range tests {
		got := BackoffDelay(initial, tt.retryCount)
		if got != tt.expected {
			t.Errorf("BackoffDelay(%v, %d) = %v, want %v", initial, tt.retryCount, got, tt.expected)
		}
	}
}

func TestBackoffDelayMonotonic(t *testing.T) {
	prev := time.Duration(0)
	for n := 1; n <= 30; n++ {
		d := BackoffDelay(time.Second, n)
		if d < prev {
			t.Fatalf("backoff decreased at attempt %d: %v < %v", n, d, prev)
		}
		if d > MaxRetryDelay {
			t.Fatalf("backoff exceeded cap at attempt %d: %v", n, d)
		}
		prev = d
	}
}

func TestRetryJobMarkSucceeded(t *testing.T) {
	now := time.Now()
	stale := "previous error"
	job := RetryJob{RetryCount: 2, MaxRetries: 5, LastError: &stale}

	job.MarkSucceeded(now)

	if !job.Resolved {
		t.Error("expected job to be resolved")
	}
	if job.Outcome != OutcomeSucceeded {
		t.Errorf("expected outcome %q, got %q", OutcomeSucceeded, job.Outcome)
	}
	if job.LastError != nil {
		t.Errorf("expected error cleared, got %q", *job.LastError)
	}
}

func TestRetryJobAbandonedAfterMaxRetries(t *testing.T) {
	now := time.Now()
	job := RetryJob{MaxRetries: 3}

	for i := 0; i < 2; i++ {
		job.MarkFailed(now, time.Minute, "transient")
		if job.Resolved {
			t.Fatalf("job resolved too early after %d failures", i+1)
		}
	}

	job.MarkFailed(now, time.Minute, "transient")

	if !job.Resolved {
		t.Fatal("expected job resolved after exhausting max retries")
	}
	if job.Outcome != OutcomeAbandoned {
		t.Errorf("expected outcome %q, got %q", OutcomeAbandoned, job.Outcome)
	}
	if job.RetryCount != 3 {
		t.Errorf("expected retry count 3, got %d", job.RetryCount)
	}
	if job.LastError == nil || *job.LastError != "transient" {
		t.Errorf("expected last error preserved, got %v", job.LastError)
	}
}

func TestRetryJobRescheduleUsesBackoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := RetryJob{MaxRetries: 5, RetryCount: 1}

	job.MarkFailed(now, 120*time.Second, "still failing")

	want := now.Add(240 * time.Second) // retry count is now 2
	if !job.NextRetryAt.Equal(want) {
		t.Errorf("expected next retry at %v, got %v", want, job.NextRetryAt)
	}
}

func TestRetryJobErrorClamped(t *testing.T) {
	now := time.Now()
	job := RetryJob{MaxRetries: 5}

	job.MarkFailed(now, time.Minute, strings.Repeat("x", 5000))

	if job.LastError == nil {
		t.Fatal("expected error recorded")
	}
	if len(*job.LastError) != MaxStoredErrorLen {
		t.Errorf("expected error clamped to %d chars, got %d", MaxStoredErrorLen, len(*job.LastError))
	}
}
