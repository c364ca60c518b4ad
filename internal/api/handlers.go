package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/sinowatch/sinowatch/internal/database"
	"github.com/sinowatch/sinowatch/internal/models"
	"github.com/sinowatch/sinowatch/internal/tagging"
)

// ArticleReader is the read surface the news endpoints need.
type ArticleReader interface {
	List(ctx context.Context, filter database.ArticleFilter) ([]models.Article, int, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
}

// HealthReader lists per-source health rows.
type HealthReader interface {
	List(ctx context.Context) ([]models.SourceHealth, error)
}

// RetryReader summarizes the retry queue.
type RetryReader interface {
	Metrics(ctx context.Context, now time.Time) (database.RetryMetrics, error)
}

// Pinger verifies storage connectivity for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const maxPageSize = 100

// Handler serves the public read API.
type Handler struct {
	articles  ArticleReader
	health    HealthReader
	retries   RetryReader
	db        Pinger
	logger    *slog.Logger
	startTime time.Time
}

// NewHandler wires the read API over its storage views.
func NewHandler(articles ArticleReader, health HealthReader, retries RetryReader, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		articles:  articles,
		health:    health,
		retries:   retries,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// NewsItem is the client-facing article view. Content carries the body in
// the requested language; Chinese falls back to English when no translation
// is stored.
type NewsItem struct {
	ID           int64     `json:"id"`
	SourceName   string    `json:"source_name"`
	ArticleURL   string    `json:"article_url"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Content      string    `json:"content"`
	Language     string    `json:"language"`
	PublishedAt  time.Time `json:"published_at"`
	FetchedAt    time.Time `json:"fetched_at"`
	ChinaRelated bool      `json:"china_related"`
	ImageURL     *string   `json:"image_url,omitempty"`
	Countries    []string  `json:"countries"`
	Topics       []string  `json:"topics"`
}

func toNewsItem(a models.Article, lang string) NewsItem {
	content := a.ContentEN
	language := "en"
	if lang == "zh" && a.ContentZH != nil {
		content = *a.ContentZH
		language = "zh"
	}

	countries := tagging.FromBlob(a.CountryTags)
	if countries == nil {
		countries = []string{}
	}
	topics := tagging.FromBlob(a.TopicTags)
	if topics == nil {
		topics = []string{}
	}

	return NewsItem{
		ID:           a.ID,
		SourceName:   a.SourceName,
		ArticleURL:   a.ArticleURL,
		Title:        a.Title,
		Summary:      a.Summary,
		Content:      content,
		Language:     language,
		PublishedAt:  a.PublishedAt,
		FetchedAt:    a.FetchedAt,
		ChinaRelated: a.ChinaRelated,
		ImageURL:     a.ImageURL,
		Countries:    countries,
		Topics:       topics,
	}
}

// NewsResponse is the paginated article list payload.
type NewsResponse struct {
	Articles []NewsItem `json:"articles"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ListNewsHandler handles GET /api/news
func (h *Handler) ListNewsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lang, err := parseLang(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter, err := parseArticleFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	articles, total, err := h.articles.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list articles", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, toNewsItem(a, lang))
	}

	writeJSON(w, http.StatusOK, NewsResponse{
		Articles: items,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// GetNewsByIDHandler handles GET /api/news/:id
func (h *Handler) GetNewsByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	idRaw := parts[len(parts)-1]
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	lang, err := parseLang(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	article, err := h.articles.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get article", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toNewsItem(*article, lang))
}

// SourceHealthResponse wraps the per-source health listing.
type SourceHealthResponse struct {
	Sources []models.SourceHealth `json:"sources"`
	Count   int                   `json:"count"`
}

// ListSourceHealthHandler handles GET /api/sources/health
func (h *Handler) ListSourceHealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sources, err := h.health.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list source health", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sources == nil {
		sources = []models.SourceHealth{}
	}

	writeJSON(w, http.StatusOK, SourceHealthResponse{Sources: sources, Count: len(sources)})
}

// FiltersResponse lists the tag vocabulary clients can filter by.
type FiltersResponse struct {
	Countries []string `json:"countries"`
	Topics    []string `json:"topics"`
}

// FiltersHandler handles GET /api/filters
func (h *Handler) FiltersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, FiltersResponse{
		Countries: tagging.SupportedCountries(),
		Topics:    tagging.SupportedTopics(),
	})
}

// RetryMetricsHandler handles GET /api/retry/metrics
func (h *Handler) RetryMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics, err := h.retries.Metrics(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("failed to query retry metrics", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}

// HealthzHandler handles GET /healthz
func (h *Handler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.Error("health check database ping failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]string{
		"status": status,
		"uptime": time.Since(h.startTime).Truncate(time.Second).String(),
	})
}

func parseLang(r *http.Request) (string, error) {
	switch r.URL.Query().Get("lang") {
	case "", "en":
		return "en", nil
	case "zh":
		return "zh", nil
	}
	return "", errInvalidParam("lang")
}

func parseArticleFilter(r *http.Request) (database.ArticleFilter, error) {
	q := r.URL.Query()
	filter := database.ArticleFilter{
		ChinaOnly: q.Get("china_only") == "true",
		Query:     strings.TrimSpace(q.Get("q")),
		Country:   tagging.NormalizeSlug(q.Get("country")),
		Topic:     tagging.NormalizeSlug(q.Get("topic")),
		Limit:     50,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, errInvalidParam("limit")
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		filter.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errInvalidParam("offset")
		}
		filter.Offset = n
	}

	return filter, nil
}

type paramError string

func errInvalidParam(name string) error { return paramError(name) }

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
