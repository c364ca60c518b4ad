package models

import (
	"time"
)

// CandidateItem is a freshly parsed feed entry. It lives only for the
// duration of one poll cycle: the dedup gate either promotes it into an
// Article or drops it.
type CandidateItem struct {
	SourceName  string    `json:"source_name"`
	SourceURL   string    `json:"source_url"`
	ArticleURL  string    `json:"article_url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Article is the durable record for one unique news article.
//
// ArticleURL is canonical (tracking query parameters stripped) and unique
// across all rows. CountryTags and TopicTags are stored as delimited blobs
// (e.g. "|china|taiwan|") so membership checks are plain substring queries.
type Article struct {
	ID           int64      `json:"id"`
	SourceName   string     `json:"source_name"`
	SourceURL    string     `json:"source_url"`
	ArticleURL   string     `json:"article_url"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	ContentEN    string     `json:"content_en"`
	ContentZH    *string    `json:"content_zh,omitempty"`
	Language     string     `json:"language_detected"`
	PublishedAt  time.Time  `json:"published_at"`
	FetchedAt    time.Time  `json:"fetched_at"`
	ChinaRelated bool       `json:"china_related"`
	ImageURL     *string    `json:"image_url,omitempty"`
	CountryTags  string     `json:"country_tags_blob"`
	TopicTags    string     `json:"topic_tags_blob"`
}

// MaxStoredErrorLen caps operator-visible error text persisted alongside
// health rows and retry jobs.
const MaxStoredErrorLen = 1000

// ClampError truncates error text to the stored limit.
func ClampError(msg string) string {
	if len(msg) > MaxStoredErrorLen {
		return msg[:MaxStoredErrorLen]
	}
	return msg
}
