// Package extract downloads article pages and pulls best-effort plain text
// out of them. Both steps are lossy by contract: callers get an empty
// result on failure, never a panic or a partial page.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// maxBodyBytes bounds how much of an article page is read.
	maxBodyBytes = 4 << 20

	// minParagraphLen filters nav crumbs and single-word fragments.
	minParagraphLen = 40
)

// Client fetches article HTML with its own timeout, independent of the
// feed-fetch timeout.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds an article fetcher.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchHTML downloads the page at url. Any transport or status failure is
// returned as an error; the caller treats that as "no HTML".
func (c *Client) FetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read article body: %w", err)
	}

	return string(body), nil
}

// Text extracts readable plain text from article HTML. Returns "" when the
// document yields nothing usable. This is the CPU-bound half of extraction;
// callers run it off their I/O coordination goroutine.
func Text(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, iframe, form, nav, header, footer, aside").Remove()

	// Prefer paragraphs inside an article element, fall back to the page.
	paragraphs := collectParagraphs(doc.Find("article p"))
	if len(paragraphs) == 0 {
		paragraphs = collectParagraphs(doc.Find("p"))
	}
	if len(paragraphs) == 0 {
		return ""
	}

	return strings.Join(paragraphs, "\n\n")
}

func collectParagraphs(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < minParagraphLen {
			return
		}
		out = append(out, strings.Join(strings.Fields(text), " "))
	})
	return out
}
