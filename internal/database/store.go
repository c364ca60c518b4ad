package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sinowatch/sinowatch/internal/ingestion"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx, so repositories
// can run against the pool for reads and inside a transaction for cycle
// writes without duplication.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the connection pool and hands out repository views.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InTx runs fn against transactional repository views. fn returning an
// error rolls everything back; commit errors surface to the caller.
func (s *Store) InTx(ctx context.Context, fn func(ingestion.Stores) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stores := ingestion.Stores{
		Articles: NewArticleRepository(tx),
		Health:   NewSourceHealthRepository(tx),
		Retries:  NewRetryJobRepository(tx),
	}

	if err := fn(stores); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Articles returns a read-facing repository bound to the pool.
func (s *Store) Articles() *ArticleRepository {
	return NewArticleRepository(s.db)
}

// SourceHealth returns a read-facing repository bound to the pool.
func (s *Store) SourceHealth() *SourceHealthRepository {
	return NewSourceHealthRepository(s.db)
}

// RetryJobs returns a read-facing repository bound to the pool.
func (s *Store) RetryJobs() *RetryJobRepository {
	return NewRetryJobRepository(s.db)
}
