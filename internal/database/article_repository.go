package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/sinowatch/sinowatch/internal/models"
)

const articleColumns = `
	id, source_name, source_url, article_url, title, summary,
	content_en, content_zh, language_detected, published_at, fetched_at,
	china_related, image_url, country_tags, topic_tags
`

// ArticleRepository persists and queries news articles.
type ArticleRepository struct {
	db DBTX
}

// NewArticleRepository binds a repository to a pool or transaction.
func NewArticleRepository(db DBTX) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// ExistsByURL checks whether the canonical URL is already stored.
func (r *ArticleRepository) ExistsByURL(ctx context.Context, articleURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM news_articles WHERE article_url = $1)", articleURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article by url: %w", err)
	}
	return exists, nil
}

// ExistsByKey checks for an article with the same title, source and
// publication timestamp. Catches republications under a different URL.
func (r *ArticleRepository) ExistsByKey(ctx context.Context, title, sourceName string, publishedAt time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM news_articles WHERE title = $1 AND source_name = $2 AND published_at = $3)",
		title, sourceName, publishedAt).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article by key: %w", err)
	}
	return exists, nil
}

// GetByURL returns the article with the canonical URL, or nil.
func (r *ArticleRepository) GetByURL(ctx context.Context, articleURL string) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+articleColumns+"FROM news_articles WHERE article_url = $1", articleURL)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query article by url: %w", err)
	}
	return article, nil
}

// GetByID returns the article with the given ID, or nil.
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+articleColumns+"FROM news_articles WHERE id = $1", id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query article by id: %w", err)
	}
	return article, nil
}

// Insert stores a new article and fills in its assigned ID. A unique
// violation on article_url is reported as (false, nil): another write
// claimed the URL first and that is not an error.
func (r *ArticleRepository) Insert(ctx context.Context, article *models.Article) (bool, error) {
	query := `
		INSERT INTO news_articles (
			source_name, source_url, article_url, title, summary,
			content_en, content_zh, language_detected, published_at, fetched_at,
			china_related, image_url, country_tags, topic_tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		article.SourceName,
		article.SourceURL,
		article.ArticleURL,
		article.Title,
		article.Summary,
		article.ContentEN,
		article.ContentZH,
		article.Language,
		article.PublishedAt,
		article.FetchedAt,
		article.ChinaRelated,
		article.ImageURL,
		article.CountryTags,
		article.TopicTags,
	).Scan(&article.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("insert article: %w", err)
	}
	return true, nil
}

// Update rewrites the enrichment-derived fields of an existing article.
func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE news_articles SET
			content_en = $2,
			content_zh = $3,
			china_related = $4,
			country_tags = $5,
			topic_tags = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		article.ID,
		article.ContentEN,
		article.ContentZH,
		article.ChinaRelated,
		article.CountryTags,
		article.TopicTags,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// ArticleFilter narrows List results. Zero values mean no filtering.
type ArticleFilter struct {
	ChinaOnly bool
	Query     string
	Country   string
	Topic     string
	Limit     int
	Offset    int
}

// conds returns the WHERE conditions and their bind arguments. The text
// search spans title, summary, both content languages and the source name.
func (f ArticleFilter) conds() ([]string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ChinaOnly {
		conds = append(conds, "china_related = TRUE")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE %s OR summary ILIKE %s OR content_en ILIKE %s OR content_zh ILIKE %s OR source_name ILIKE %s)",
			p, p, p, p, p))
	}
	if f.Country != "" {
		conds = append(conds, fmt.Sprintf("country_tags LIKE %s", arg("%|"+f.Country+"|%")))
	}
	if f.Topic != "" {
		conds = append(conds, fmt.Sprintf("topic_tags LIKE %s", arg("%|"+f.Topic+"|%")))
	}

	return conds, args
}

// List returns articles newest first with the filter applied, plus the
// total matching count for pagination.
func (r *ArticleRepository) List(ctx context.Context, filter ArticleFilter) ([]models.Article, int, error) {
	conds, args := filter.conds()
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_articles"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT" + articleColumns + "FROM news_articles" + where +
		fmt.Sprintf(" ORDER BY published_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article row: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate article rows: %w", err)
	}

	return articles, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	err := row.Scan(
		&a.ID,
		&a.SourceName,
		&a.SourceURL,
		&a.ArticleURL,
		&a.Title,
		&a.Summary,
		&a.ContentEN,
		&a.ContentZH,
		&a.Language,
		&a.PublishedAt,
		&a.FetchedAt,
		&a.ChinaRelated,
		&a.ImageURL,
		&a.CountryTags,
		&a.TopicTags,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
