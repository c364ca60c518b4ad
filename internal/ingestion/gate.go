package ingestion

import (
	"context"
	"net/url"
	"time"

	"github.com/sinowatch/sinowatch/internal/models"
	"github.com/sinowatch/sinowatch/internal/tagging"
)

// CanonicalURL strips the query string (where tracking parameters live)
// while preserving scheme, host, path and fragment. Unparseable input is
// returned as-is.
func CanonicalURL(raw string) string {
	if raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.RawQuery = ""
	return u.String()
}

// Gate decides whether a candidate item is new and, if so, stages its
// durable record. Duplicates are dropped silently; they are not errors.
type Gate struct {
	articles ArticleStore
	queue    *RetryQueue
	now      func() time.Time
}

// NewGate builds a gate over the cycle's transactional stores.
func NewGate(articles ArticleStore, queue *RetryQueue, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{articles: articles, queue: queue, now: now}
}

// IsDuplicate reports whether the candidate already has a stored record,
// by canonical URL or by the (title, source, published) triple. Callers
// check this before spending extraction and translation work on the item.
func (g *Gate) IsDuplicate(ctx context.Context, item models.CandidateItem) (bool, error) {
	exists, err := g.articles.ExistsByURL(ctx, CanonicalURL(item.ArticleURL))
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	exists, err = g.articles.ExistsByKey(ctx, item.Title, item.SourceName, item.PublishedAt)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Admit stages the durable record for a candidate that passed IsDuplicate.
// When extraction failed upstream, a follow-up extract job is staged too so
// a later cycle can upgrade the body.
func (g *Gate) Admit(ctx context.Context, item models.CandidateItem, enr Enrichment) (bool, error) {
	canonical := CanonicalURL(item.ArticleURL)
	now := g.now().UTC()
	article := &models.Article{
		SourceName:   item.SourceName,
		SourceURL:    item.SourceURL,
		ArticleURL:   canonical,
		Title:        item.Title,
		Summary:      item.Summary,
		ContentEN:    enr.Content,
		ContentZH:    enr.ContentZH,
		Language:     "en",
		PublishedAt:  item.PublishedAt,
		FetchedAt:    now,
		ChinaRelated: enr.ChinaRelated,
		CountryTags:  tagging.ToBlob(enr.Countries),
		TopicTags:    tagging.ToBlob(enr.Topics),
	}
	if item.ImageURL != "" {
		img := item.ImageURL
		article.ImageURL = &img
	}

	inserted, err := g.articles.Insert(ctx, article)
	if err != nil {
		return false, err
	}
	if !inserted {
		// Another source discovered the same canonical URL within this
		// cycle; the storage uniqueness constraint is the backstop.
		return false, nil
	}

	if enr.ExtractionFailed {
		err = g.queue.Enqueue(ctx, models.StageArticleExtract, item.SourceName, canonical,
			map[string]string{"title": item.Title},
			"initial content extraction returned empty")
		if err != nil {
			return false, err
		}
	}

	return true, nil
}
