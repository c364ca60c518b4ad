package ingestion

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sinowatch/sinowatch/internal/models"
)

// MemoryStores is an in-memory Stores implementation for tests and local
// development. All three stores share one mutex so a cycle observes a
// consistent view, mirroring the single-transaction contract.
type MemoryStores struct {
	mu       sync.Mutex
	nextID   int64
	articles []*models.Article
	health   map[string]*models.SourceHealth
	jobs     map[string]*models.RetryJob
}

// NewMemoryStores builds empty in-memory stores.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		nextID: 1,
		health: make(map[string]*models.SourceHealth),
		jobs:   make(map[string]*models.RetryJob),
	}
}

// InTx satisfies TxRunner. There is no rollback; tests that need failure
// atomicity assert against the error instead.
func (m *MemoryStores) InTx(_ context.Context, fn func(Stores) error) error {
	return fn(Stores{
		Articles: (*memoryArticles)(m),
		Health:   (*memoryHealth)(m),
		Retries:  (*memoryJobs)(m),
	})
}

// Articles returns a copy of all stored articles, insertion order.
func (m *MemoryStores) Articles() []models.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Article, len(m.articles))
	for i, a := range m.articles {
		out[i] = *a
	}
	return out
}

// Health returns the stored health row for a source, or nil.
func (m *MemoryStores) Health(sourceName string) *models.SourceHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.health[sourceName]
	if !ok {
		return nil
	}
	cp := *h
	return &cp
}

// Jobs returns copies of all retry jobs, oldest first.
func (m *MemoryStores) Jobs() []models.RetryJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RetryJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out
}

type memoryArticles MemoryStores

func (m *memoryArticles) ExistsByURL(_ context.Context, articleURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ArticleURL == articleURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryArticles) ExistsByKey(_ context.Context, title, sourceName string, publishedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Title == title && a.SourceName == sourceName && a.PublishedAt.Equal(publishedAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryArticles) GetByURL(_ context.Context, articleURL string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ArticleURL == articleURL {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryArticles) Insert(_ context.Context, article *models.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ArticleURL == article.ArticleURL {
			return false, nil
		}
	}
	article.ID = m.nextID
	m.nextID++
	cp := *article
	m.articles = append(m.articles, &cp)
	return true, nil
}

func (m *memoryArticles) Update(_ context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.articles {
		if a.ID == article.ID {
			cp := *article
			m.articles[i] = &cp
			return nil
		}
	}
	return nil
}

type memoryHealth MemoryStores

func (m *memoryHealth) Get(_ context.Context, sourceName string) (*models.SourceHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.health[sourceName]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (m *memoryHealth) Upsert(_ context.Context, health *models.SourceHealth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *health
	m.health[health.SourceName] = &cp
	return nil
}

type memoryJobs MemoryStores

func (m *memoryJobs) HasUnresolved(_ context.Context, stage models.RetryStage, targetURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Stage == stage && j.TargetURL == targetURL && !j.Resolved {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryJobs) Insert(_ context.Context, job *models.RetryJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memoryJobs) Due(_ context.Context, now time.Time, limit int) ([]models.RetryJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.RetryJob
	for _, j := range m.jobs {
		if !j.Resolved && !j.NextRetryAt.After(now) {
			due = append(due, *j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].NextRetryAt.Before(due[k].NextRetryAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memoryJobs) Update(_ context.Context, job *models.RetryJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}
