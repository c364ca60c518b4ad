package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInstrumentHandlerRecordsRequests(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handler := collector.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status passthrough, got %d", rec.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `sinowatch_http_requests_total{method="GET",path="/api/news",status="418"} 1`) {
		t.Errorf("request counter not recorded:\n%s", body)
	}
}

func TestIngestionMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.CycleCompleted(5)
	collector.CycleCompleted(0)
	collector.CycleFailed()
	collector.FetchObserved("CNN World", true, 120*time.Millisecond)
	collector.RetryJobsDue(3)

	body := scrape(t, collector)

	checks := []string{
		"sinowatch_ingest_cycles_total 2",
		"sinowatch_ingest_articles_inserted_total 5",
		"sinowatch_ingest_cycle_failures_total 1",
		"sinowatch_ingest_retry_jobs_due 3",
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("missing metric %q in output", want)
		}
	}
}

func TestNilCollectorSafe(t *testing.T) {
	var c *Collector
	c.CycleCompleted(1)
	c.CycleFailed()
	c.FetchObserved("x", false, time.Second)
	c.RetryJobsDue(0)
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	return string(body)
}
