package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sinowatch/sinowatch/internal/models"
)

const sourceHealthColumns = `
	source_name, feed_url, last_status, consecutive_failures, last_error,
	last_latency_ms, last_items_count, last_checked_at, last_success_at, updated_at
`

// SourceHealthRepository persists per-source health rows.
type SourceHealthRepository struct {
	db DBTX
}

// NewSourceHealthRepository binds a repository to a pool or transaction.
func NewSourceHealthRepository(db DBTX) *SourceHealthRepository {
	return &SourceHealthRepository{db: db}
}

// Get returns the health row for a source, or nil when the source has
// never been observed.
func (r *SourceHealthRepository) Get(ctx context.Context, sourceName string) (*models.SourceHealth, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+sourceHealthColumns+"FROM source_health WHERE source_name = $1", sourceName)

	health, err := scanSourceHealth(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query source health: %w", err)
	}
	return health, nil
}

// Upsert writes the health row, keyed by source name.
func (r *SourceHealthRepository) Upsert(ctx context.Context, h *models.SourceHealth) error {
	query := `
		INSERT INTO source_health (
			source_name, feed_url, last_status, consecutive_failures, last_error,
			last_latency_ms, last_items_count, last_checked_at, last_success_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (source_name) DO UPDATE SET
			feed_url = EXCLUDED.feed_url,
			last_status = EXCLUDED.last_status,
			consecutive_failures = EXCLUDED.consecutive_failures,
			last_error = EXCLUDED.last_error,
			last_latency_ms = EXCLUDED.last_latency_ms,
			last_items_count = EXCLUDED.last_items_count,
			last_checked_at = EXCLUDED.last_checked_at,
			last_success_at = EXCLUDED.last_success_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		h.SourceName,
		h.FeedURL,
		string(h.Status),
		h.ConsecutiveFailures,
		h.LastError,
		h.LastLatencyMs,
		h.LastItemCount,
		h.LastCheckedAt,
		h.LastSuccessAt,
		h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert source health: %w", err)
	}
	return nil
}

// List returns all health rows ordered by source name.
func (r *SourceHealthRepository) List(ctx context.Context) ([]models.SourceHealth, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+sourceHealthColumns+"FROM source_health ORDER BY source_name")
	if err != nil {
		return nil, fmt.Errorf("list source health: %w", err)
	}
	defer rows.Close()

	var out []models.SourceHealth
	for rows.Next() {
		h, err := scanSourceHealth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source health row: %w", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source health rows: %w", err)
	}
	return out, nil
}

func scanSourceHealth(row rowScanner) (*models.SourceHealth, error) {
	var h models.SourceHealth
	var status string
	err := row.Scan(
		&h.SourceName,
		&h.FeedURL,
		&status,
		&h.ConsecutiveFailures,
		&h.LastError,
		&h.LastLatencyMs,
		&h.LastItemCount,
		&h.LastCheckedAt,
		&h.LastSuccessAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Status = models.SourceStatus(status)
	return &h, nil
}
