package ingestion

import (
	"context"
	"time"

	"github.com/sinowatch/sinowatch/internal/models"
)

// ArticleStore is the persistence seam for articles. Implementations run
// against the cycle's transaction so staged writes become visible to later
// reads within the same cycle and commit (or roll back) together.
type ArticleStore interface {
	// ExistsByURL reports whether an article with the canonical URL exists.
	ExistsByURL(ctx context.Context, articleURL string) (bool, error)

	// ExistsByKey reports whether an article with the exact
	// (title, source name, published) triple exists.
	ExistsByKey(ctx context.Context, title, sourceName string, publishedAt time.Time) (bool, error)

	// GetByURL returns the article with the canonical URL, or nil.
	GetByURL(ctx context.Context, articleURL string) (*models.Article, error)

	// Insert stores a new article, assigning its ID. Returns false when a
	// concurrent insert already claimed the canonical URL; that is a
	// silent duplicate, not an error.
	Insert(ctx context.Context, article *models.Article) (bool, error)

	// Update rewrites the mutable enrichment fields of an article.
	Update(ctx context.Context, article *models.Article) error
}

// HealthStore persists per-source health rows.
type HealthStore interface {
	// Get returns the health row for a source, or nil when never seen.
	Get(ctx context.Context, sourceName string) (*models.SourceHealth, error)

	// Upsert writes the health row, keyed by source name.
	Upsert(ctx context.Context, health *models.SourceHealth) error
}

// RetryJobStore persists deferred-work jobs.
type RetryJobStore interface {
	// HasUnresolved reports whether an unresolved job exists for the
	// (stage, target URL) pair.
	HasUnresolved(ctx context.Context, stage models.RetryStage, targetURL string) (bool, error)

	// Insert stores a new job.
	Insert(ctx context.Context, job *models.RetryJob) error

	// Due returns unresolved jobs with next_retry_at <= now, oldest-due
	// first, at most limit.
	Due(ctx context.Context, now time.Time, limit int) ([]models.RetryJob, error)

	// Update rewrites a job's retry state.
	Update(ctx context.Context, job *models.RetryJob) error
}

// Stores bundles the per-transaction views handed to one cycle.
type Stores struct {
	Articles ArticleStore
	Health   HealthStore
	Retries  RetryJobStore
}

// TxRunner executes fn against a single storage transaction. If fn returns
// an error the transaction rolls back and nothing staged becomes visible.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}
