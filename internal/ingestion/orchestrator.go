package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/sinowatch/sinowatch/internal/metrics"
	"github.com/sinowatch/sinowatch/internal/models"
	"github.com/sinowatch/sinowatch/internal/notify"
)

// ErrCycleRunning is returned when a cycle trigger fires while the
// previous cycle is still in flight. Triggers coalesce: the new one is
// dropped, never queued.
var ErrCycleRunning = errors.New("ingestion cycle already running")

// Config holds the orchestrator's tunables.
type Config struct {
	PollInterval    time.Duration
	FeedMaxAttempts int
	FeedBackoff     time.Duration
	Retry           RetryConfig
}

// Notifier receives the post-commit fan-out. It must never block and never
// fail into the orchestrator.
type Notifier interface {
	Broadcast(ev notify.Event)
}

// Orchestrator coordinates one poll cycle across all registered sources:
// drain due retry jobs, fetch every source concurrently, enrich and admit
// items, commit everything atomically, then notify.
type Orchestrator struct {
	sources  []Source
	fetcher  FeedFetcher
	enricher *Enricher
	tx       TxRunner
	notifier Notifier
	metrics  *metrics.Collector
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// NewOrchestrator wires the ingestion engine. metrics may be nil.
func NewOrchestrator(
	sources []Source,
	fetcher FeedFetcher,
	enricher *Enricher,
	tx TxRunner,
	notifier Notifier,
	collector *metrics.Collector,
	logger *slog.Logger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		sources:  sources,
		fetcher:  fetcher,
		enricher: enricher,
		tx:       tx,
		notifier: notifier,
		metrics:  collector,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start runs the poll loop: an immediate first cycle, then one per tick
// until the context is cancelled. Overlapping triggers are skipped.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.logger.Info("starting ingestion loop",
		"sources", len(o.sources),
		"poll_interval", o.cfg.PollInterval,
	)

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	o.runScheduled(ctx)

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("ingestion loop shutting down")
			return ctx.Err()
		case <-ticker.C:
			o.runScheduled(ctx)
		}
	}
}

func (o *Orchestrator) runScheduled(ctx context.Context) {
	inserted, err := o.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrCycleRunning):
		o.logger.Info("previous cycle still running, skipping trigger")
	case err != nil:
		// Persistent failures surface here; the next tick retries.
		o.logger.Error("ingestion cycle failed", "error", err)
	default:
		o.logger.Info("ingestion cycle complete", "inserted", inserted)
	}
}

// RunCycle executes one full ingestion cycle and returns how many articles
// it inserted. All storage mutations commit in a single transaction; a
// failure before commit leaves previously committed state untouched.
func (o *Orchestrator) RunCycle(ctx context.Context) (int, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return 0, ErrCycleRunning
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	inserted := 0
	err := o.tx.InTx(ctx, func(s Stores) error {
		queue := NewRetryQueue(s.Retries, o.cfg.Retry, o.now)
		gate := NewGate(s.Articles, queue, o.now)
		tracker := NewHealthTracker(s.Health, o.now)

		n, err := o.drainRetries(ctx, s.Articles, queue, gate, tracker)
		if err != nil {
			return err
		}
		inserted += n

		for _, result := range o.fetchAll(ctx) {
			if err := tracker.Record(ctx, result); err != nil {
				return err
			}

			if result.Success {
				n, err := o.ingestItems(ctx, gate, result.Items)
				if err != nil {
					return err
				}
				inserted += n
				continue
			}

			cause := "source fetch failed"
			if result.Err != nil {
				cause = result.Err.Error()
			}
			err = queue.Enqueue(ctx, models.StageFeedFetch, result.Source.Name, result.Source.FeedURL,
				map[string]string{"feed_url": result.Source.FeedURL}, cause)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		o.metrics.CycleFailed()
		return 0, fmt.Errorf("ingestion cycle: %w", err)
	}

	o.metrics.CycleCompleted(inserted)
	if inserted > 0 {
		o.notifier.Broadcast(notify.Event{Type: notify.EventNewsInserted, Count: inserted})
	}

	return inserted, nil
}

// fetchAll fetches every registered source concurrently. Only network work
// happens here; all storage writes stay on the caller's goroutine because
// they share one transaction.
func (o *Orchestrator) fetchAll(ctx context.Context) []FetchResult {
	results := make([]FetchResult, len(o.sources))

	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = o.fetcher.Fetch(ctx, src, o.cfg.FeedMaxAttempts, o.cfg.FeedBackoff)
		}(i, src)
	}
	wg.Wait()

	for _, res := range results {
		o.metrics.FetchObserved(res.Source.Name, res.Success, time.Duration(res.LatencyMs)*time.Millisecond)
	}

	return results
}

// ingestItems routes a source's candidate batch through the dedup check,
// enrichment and admission, sequentially to keep translator fan-out
// bounded. Duplicates are dropped before enrichment so known articles cost
// no article fetch or translation.
func (o *Orchestrator) ingestItems(ctx context.Context, gate *Gate, items []models.CandidateItem) (int, error) {
	inserted := 0
	for _, item := range items {
		dup, err := gate.IsDuplicate(ctx, item)
		if err != nil {
			return inserted, err
		}
		if dup {
			continue
		}

		enr := o.enricher.Enrich(ctx, item)
		ok, err := gate.Admit(ctx, item, enr)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// drainRetries re-invokes every due retry job with a single attempt. The
// queue is the retry mechanism, so there is no inner retry budget.
func (o *Orchestrator) drainRetries(ctx context.Context, articles ArticleStore, queue *RetryQueue, gate *Gate, tracker *HealthTracker) (int, error) {
	jobs, err := queue.Due(ctx)
	if err != nil {
		return 0, err
	}
	o.metrics.RetryJobsDue(len(jobs))
	if len(jobs) == 0 {
		return 0, nil
	}

	o.logger.Info("draining retry queue", "due", len(jobs))

	inserted := 0
	for i := range jobs {
		job := &jobs[i]

		switch job.Stage {
		case models.StageFeedFetch:
			n, err := o.retryFeedFetch(ctx, job, queue, gate, tracker)
			if err != nil {
				return inserted, err
			}
			inserted += n

		case models.StageArticleExtract:
			ok, err := o.retryArticleExtract(ctx, articles, job)
			if err != nil {
				return inserted, err
			}
			if ok {
				err = queue.Complete(ctx, job)
			} else {
				err = queue.Fail(ctx, job, "article extraction retry failed")
			}
			if err != nil {
				return inserted, err
			}

		default:
			// Unknown stage, nothing to re-invoke; resolve it.
			if err := queue.Complete(ctx, job); err != nil {
				return inserted, err
			}
		}
	}

	return inserted, nil
}

func (o *Orchestrator) retryFeedFetch(ctx context.Context, job *models.RetryJob, queue *RetryQueue, gate *Gate, tracker *HealthTracker) (int, error) {
	result := o.fetcher.Fetch(ctx, Source{Name: job.SourceName, FeedURL: job.TargetURL}, 1, 0)

	if err := tracker.Record(ctx, result); err != nil {
		return 0, err
	}

	if !result.Success {
		cause := "source fetch failed"
		if result.Err != nil {
			cause = result.Err.Error()
		}
		return 0, queue.Fail(ctx, job, cause)
	}

	inserted, err := o.ingestItems(ctx, gate, result.Items)
	if err != nil {
		return inserted, err
	}
	return inserted, queue.Complete(ctx, job)
}

// retryArticleExtract re-attempts extraction for a stored article. The
// body is only ever upgraded: shorter or empty text leaves the record as
// it was. ok=false means the attempt failed and the job should reschedule;
// storage errors abort the cycle instead.
func (o *Orchestrator) retryArticleExtract(ctx context.Context, articles ArticleStore, job *models.RetryJob) (bool, error) {
	text := o.enricher.ExtractBody(ctx, job.TargetURL)
	if text == "" {
		return false, nil
	}

	article, err := articles.GetByURL(ctx, job.TargetURL)
	if err != nil {
		return false, err
	}
	if article == nil {
		// The record is gone; nothing left to upgrade.
		return true, nil
	}

	if len(text) <= len(article.ContentEN) {
		return true, nil
	}

	o.enricher.Upgrade(ctx, article, text)
	if err := articles.Update(ctx, article); err != nil {
		return false, err
	}

	o.logger.Info("upgraded article body from retry",
		"url", job.TargetURL,
		"length", len(text),
	)
	return true, nil
}
