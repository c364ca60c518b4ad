package ingestion

import (
	"context"

	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/sinowatch/sinowatch/internal/models"
	"github.com/sinowatch/sinowatch/internal/tagging"
)

// MaxContentLen caps extracted body text to bound storage and downstream
// translation cost.
const MaxContentLen = 30000

// ArticleFetcher downloads raw article HTML; it fails with an error rather
// than partial content.
type ArticleFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Translator renders English text into Chinese, best effort. ok is false
// whenever no translation is available; that is never an ingestion error.
type Translator interface {
	Translate(ctx context.Context, text string) (translated string, ok bool)
}

// Tagger derives tags and the independent china-relevance signal.
type Tagger interface {
	Extract(texts ...string) (countries, topics []string)
	ChinaRelated(texts ...string) bool
}

// Enrichment is what the enricher derives for one candidate item.
type Enrichment struct {
	Content          string
	ContentZH        *string
	Countries        []string
	Topics           []string
	ChinaRelated     bool
	ExtractionFailed bool
}

// Enricher sequences the per-item enrichment steps and guards their
// failures so a degraded collaborator never blocks ingestion.
type Enricher struct {
	pages      ArticleFetcher
	extractFn  func(html string) string
	pool       *ants.Pool
	translator Translator
	tagger     Tagger
	logger     *slog.Logger
}

// NewEnricher builds an enricher. pool may be nil, in which case extraction
// runs inline; with a pool the CPU-bound HTML parse is offloaded so it
// cannot stall goroutines coordinating concurrent fetches.
func NewEnricher(
	pages ArticleFetcher,
	extractFn func(html string) string,
	pool *ants.Pool,
	translator Translator,
	tagger Tagger,
	logger *slog.Logger,
) *Enricher {
	return &Enricher{
		pages:      pages,
		extractFn:  extractFn,
		pool:       pool,
		translator: translator,
		tagger:     tagger,
		logger:     logger,
	}
}

// Enrich runs the full enrichment sequence for a candidate: extract, fall
// back to the feed summary when extraction yields nothing, translate, tag.
func (e *Enricher) Enrich(ctx context.Context, item models.CandidateItem) Enrichment {
	enr := Enrichment{Content: e.ExtractBody(ctx, item.ArticleURL)}

	if enr.Content == "" {
		enr.ExtractionFailed = true
		enr.Content = item.Summary
	}

	if zh, ok := e.translator.Translate(ctx, enr.Content); ok {
		enr.ContentZH = &zh
	}

	enr.Countries, enr.Topics = e.tagger.Extract(item.Title, item.Summary, enr.Content)
	enr.ChinaRelated = hasTag(enr.Countries, "china") ||
		e.tagger.ChinaRelated(item.Title, item.Summary, enr.Content)

	return enr
}

// ExtractBody fetches the article page and extracts plain text, truncated
// to MaxContentLen. Returns "" on any failure.
func (e *Enricher) ExtractBody(ctx context.Context, url string) string {
	html, err := e.pages.FetchHTML(ctx, url)
	if err != nil {
		e.logger.Debug("article fetch failed", "url", url, "error", err)
		return ""
	}
	if html == "" {
		return ""
	}

	text := e.extract(ctx, html)
	if len(text) > MaxContentLen {
		text = text[:MaxContentLen]
	}
	return text
}

// Upgrade replaces an article's body with freshly extracted text and
// recomputes the fields derived from it. Callers decide whether the new
// text is worth storing before invoking this.
func (e *Enricher) Upgrade(ctx context.Context, article *models.Article, body string) {
	article.ContentEN = body

	article.ContentZH = nil
	if zh, ok := e.translator.Translate(ctx, body); ok {
		article.ContentZH = &zh
	}

	countries, topics := e.tagger.Extract(article.Title, article.Summary, body)
	article.CountryTags = tagging.ToBlob(countries)
	article.TopicTags = tagging.ToBlob(topics)
	article.ChinaRelated = hasTag(countries, "china") ||
		e.tagger.ChinaRelated(article.Title, article.Summary, body)
}

// extract runs the CPU-bound HTML parse, off-goroutine when a pool is
// configured.
func (e *Enricher) extract(ctx context.Context, html string) string {
	if e.pool == nil {
		return e.extractFn(html)
	}

	result := make(chan string, 1)
	if err := e.pool.Submit(func() {
		result <- e.extractFn(html)
	}); err != nil {
		// Pool saturated or released; degrade to inline extraction.
		e.logger.Warn("extraction pool rejected task", "error", err)
		return e.extractFn(html)
	}

	select {
	case text := <-result:
		return text
	case <-ctx.Done():
		return ""
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
