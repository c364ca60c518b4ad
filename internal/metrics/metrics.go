package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for the HTTP surface and the
// ingestion engine from one registry.
type Collector struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cyclesTotal      prometheus.Counter
	cycleFailures    prometheus.Counter
	articlesInserted prometheus.Counter
	fetchLatency     *prometheus.HistogramVec
	retryJobsDue     prometheus.Gauge
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sinowatch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sinowatch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sinowatch",
			Subsystem: "ingest",
			Name:      "cycles_total",
			Help:      "Completed ingestion cycles.",
		}),
		cycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sinowatch",
			Subsystem: "ingest",
			Name:      "cycle_failures_total",
			Help:      "Ingestion cycles that failed before commit.",
		}),
		articlesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sinowatch",
			Subsystem: "ingest",
			Name:      "articles_inserted_total",
			Help:      "New articles committed by ingestion cycles.",
		}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sinowatch",
			Subsystem: "ingest",
			Name:      "fetch_duration_seconds",
			Help:      "Feed fetch latency per source and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "outcome"}),
		retryJobsDue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sinowatch",
			Subsystem: "ingest",
			Name:      "retry_jobs_due",
			Help:      "Retry jobs that were due at the start of the last cycle.",
		}),
	}

	collectors := []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.cyclesTotal,
		c.cycleFailures,
		c.articlesInserted,
		c.fetchLatency,
		c.retryJobsDue,
	}
	for _, col := range collectors {
		if err := registry.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// CycleCompleted records a committed ingestion cycle. Nil-safe so callers
// can run without metrics wired.
func (c *Collector) CycleCompleted(inserted int) {
	if c == nil {
		return
	}
	c.cyclesTotal.Inc()
	c.articlesInserted.Add(float64(inserted))
}

// CycleFailed records a cycle that rolled back. Nil-safe.
func (c *Collector) CycleFailed() {
	if c == nil {
		return
	}
	c.cycleFailures.Inc()
}

// FetchObserved records one source fetch outcome. Nil-safe.
func (c *Collector) FetchObserved(source string, success bool, latency time.Duration) {
	if c == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.fetchLatency.WithLabelValues(source, outcome).Observe(latency.Seconds())
}

// RetryJobsDue records how many retry jobs were due when a cycle started.
// Nil-safe.
func (c *Collector) RetryJobsDue(n int) {
	if c == nil {
		return
	}
	c.retryJobsDue.Set(float64(n))
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
