package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/mmcdole/gofeed"

	"github.com/sinowatch/sinowatch/internal/models"
)

// maxFeedBytes bounds how much of a feed document is read.
const maxFeedBytes = 8 << 20

// FetchResult is the outcome of fetching one source, successful or not.
// Latency and error always reflect the last attempt so health tracking
// stays informative even on final failure.
type FetchResult struct {
	Source    Source
	Success   bool
	Attempts  int
	LatencyMs int64
	Items     []models.CandidateItem
	Err       error
}

// FeedFetcher downloads and parses one feed into candidate items.
type FeedFetcher interface {
	Fetch(ctx context.Context, src Source, maxAttempts int, backoff time.Duration) FetchResult
}

// Fetcher is the HTTP/gofeed implementation of FeedFetcher.
type Fetcher struct {
	http      *http.Client
	userAgent string
	maxItems  int
	now       func() time.Time
	logger    *slog.Logger
}

// NewFetcher builds a feed fetcher with a bounded per-request timeout.
func NewFetcher(timeout time.Duration, userAgent string, maxItems int, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxItems:  maxItems,
		now:       time.Now,
		logger:    logger,
	}
}

// Fetch downloads and parses the source's feed, retrying transport and
// parse failures up to maxAttempts with exponential backoff between
// attempts. Sleeping happens on this goroutine only, so concurrent fetches
// of other sources are never blocked.
func (f *Fetcher) Fetch(ctx context.Context, src Source, maxAttempts int, backoff time.Duration) FetchResult {
	attempts := maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	var lastLatency int64

	for attempt := 1; attempt <= attempts; attempt++ {
		started := time.Now()
		items, err := f.fetchOnce(ctx, src)
		lastLatency = time.Since(started).Milliseconds()

		if err == nil {
			return FetchResult{
				Source:    src,
				Success:   true,
				Attempts:  attempt,
				LatencyMs: lastLatency,
				Items:     items,
			}
		}

		lastErr = err
		f.logger.Debug("feed fetch attempt failed",
			"source", src.Name,
			"attempt", attempt,
			"error", err,
		)

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return FetchResult{
					Source:    src,
					Success:   false,
					Attempts:  attempt,
					LatencyMs: lastLatency,
					Err:       ctx.Err(),
				}
			case <-time.After(attemptBackoff(backoff, attempt)):
			}
		}
	}

	return FetchResult{
		Source:    src,
		Success:   false,
		Attempts:  attempts,
		LatencyMs: lastLatency,
		Err:       lastErr,
	}
}

// attemptBackoff is backoff * 2^(attempt-1).
func attemptBackoff(backoff time.Duration, attempt int) time.Duration {
	delay := backoff
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func (f *Fetcher) fetchOnce(ctx context.Context, src Source) ([]models.CandidateItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return f.toCandidates(src, feed), nil
}

func (f *Fetcher) toCandidates(src Source, feed *gofeed.Feed) []models.CandidateItem {
	items := make([]models.CandidateItem, 0, f.maxItems)

	for _, entry := range feed.Items {
		if len(items) >= f.maxItems {
			break
		}

		link := strings.TrimSpace(entry.Link)
		title := strings.TrimSpace(entry.Title)
		if link == "" || title == "" {
			continue
		}

		items = append(items, models.CandidateItem{
			SourceName:  src.Name,
			SourceURL:   src.FeedURL,
			ArticleURL:  link,
			Title:       title,
			Summary:     strings.TrimSpace(entry.Description),
			PublishedAt: f.publishedAt(entry),
			ImageURL:    entryImage(entry),
		})
	}

	return items
}

// publishedAt normalizes feed-native timestamps to UTC, falling back to
// fetch-time now when absent. Best effort, not a correctness guarantee.
func (f *Fetcher) publishedAt(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	return f.now().UTC()
}

func entryImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
