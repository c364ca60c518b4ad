package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sinowatch/sinowatch/internal/models"
)

const retryJobColumns = `
	id, stage, source_name, target_url, payload, retry_count, max_retries,
	next_retry_at, resolved, outcome, last_error, created_at, updated_at
`

// RetryJobRepository persists deferred-work jobs.
type RetryJobRepository struct {
	db DBTX
}

// NewRetryJobRepository binds a repository to a pool or transaction.
func NewRetryJobRepository(db DBTX) *RetryJobRepository {
	return &RetryJobRepository{db: db}
}

// HasUnresolved reports whether an unresolved job exists for the
// (stage, target URL) pair.
func (r *RetryJobRepository) HasUnresolved(ctx context.Context, stage models.RetryStage, targetURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM retry_jobs WHERE stage = $1 AND target_url = $2 AND NOT resolved)",
		string(stage), targetURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unresolved retry job: %w", err)
	}
	return exists, nil
}

// Insert stores a new job.
func (r *RetryJobRepository) Insert(ctx context.Context, job *models.RetryJob) error {
	query := `
		INSERT INTO retry_jobs (
			id, stage, source_name, target_url, payload, retry_count, max_retries,
			next_retry_at, resolved, outcome, last_error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		string(job.Stage),
		job.SourceName,
		job.TargetURL,
		job.Payload,
		job.RetryCount,
		job.MaxRetries,
		job.NextRetryAt,
		job.Resolved,
		string(job.Outcome),
		job.LastError,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert retry job: %w", err)
	}
	return nil
}

// Due returns unresolved jobs scheduled at or before now, oldest-due
// first, at most limit.
func (r *RetryJobRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.RetryJob, error) {
	query := "SELECT" + retryJobColumns + `FROM retry_jobs
		WHERE NOT resolved AND next_retry_at <= $1
		ORDER BY next_retry_at ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due retry jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.RetryJob
	for rows.Next() {
		var job models.RetryJob
		var stage, outcome string
		err := rows.Scan(
			&job.ID,
			&stage,
			&job.SourceName,
			&job.TargetURL,
			&job.Payload,
			&job.RetryCount,
			&job.MaxRetries,
			&job.NextRetryAt,
			&job.Resolved,
			&outcome,
			&job.LastError,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan retry job row: %w", err)
		}
		job.Stage = models.RetryStage(stage)
		job.Outcome = models.RetryOutcome(outcome)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retry job rows: %w", err)
	}
	return jobs, nil
}

// Update rewrites a job's retry state.
func (r *RetryJobRepository) Update(ctx context.Context, job *models.RetryJob) error {
	query := `
		UPDATE retry_jobs SET
			retry_count = $2,
			next_retry_at = $3,
			resolved = $4,
			outcome = $5,
			last_error = $6,
			updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.RetryCount,
		job.NextRetryAt,
		job.Resolved,
		string(job.Outcome),
		job.LastError,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update retry job: %w", err)
	}
	return nil
}

// RetryMetrics summarizes queue state for the operator endpoint.
type RetryMetrics struct {
	Pending   int `json:"pending"`
	Due       int `json:"due"`
	Succeeded int `json:"succeeded"`
	Abandoned int `json:"abandoned"`
}

// Metrics counts jobs by state as of now.
func (r *RetryJobRepository) Metrics(ctx context.Context, now time.Time) (RetryMetrics, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE NOT resolved),
			COUNT(*) FILTER (WHERE NOT resolved AND next_retry_at <= $1),
			COUNT(*) FILTER (WHERE outcome = 'succeeded'),
			COUNT(*) FILTER (WHERE outcome = 'abandoned')
		FROM retry_jobs
	`

	var m RetryMetrics
	err := r.db.QueryRowContext(ctx, query, now).Scan(&m.Pending, &m.Due, &m.Succeeded, &m.Abandoned)
	if err != nil {
		return RetryMetrics{}, fmt.Errorf("query retry metrics: %w", err)
	}
	return m, nil
}
