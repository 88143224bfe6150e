// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JakeFAU/catalog-scraper/internal/crawler"
)

var (
	scraperPagesTotal          *prometheus.CounterVec
	scraperBytesTotal          *prometheus.CounterVec
	scraperRecordsTotal        prometheus.Counter
	scraperTasksEnqueuedTotal  *prometheus.CounterVec
	scraperTasksDroppedTotal   prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Total number of pages fetched, labeled by parser.",
			},
			[]string{"parser"},
		)

		scraperBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_bytes_total",
				Help: "Total number of body bytes fetched, labeled by parser.",
			},
			[]string{"parser"},
		)

		scraperRecordsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_records_total",
				Help: "Total number of records accepted by the sink.",
			},
		)

		scraperTasksEnqueuedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_tasks_enqueued_total",
				Help: "Total number of follow-up tasks appended to the queue, labeled by parser.",
			},
			[]string{"parser"},
		)

		scraperTasksDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_tasks_dropped_total",
				Help: "Total number of empty tasks discarded by the engine.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Observer feeds engine events into the scraper collectors.
type Observer struct{}

var _ crawler.Observer = Observer{}

// NewObserver initializes the collectors and returns an engine observer.
func NewObserver() Observer {
	Init()
	return Observer{}
}

// PageFetched counts a fetched page and its body size.
func (Observer) PageFetched(parser crawler.ParserID, page crawler.Page) {
	label := string(parser)
	scraperPagesTotal.WithLabelValues(label).Inc()
	if n := page.ContentLength(); n > 0 {
		scraperBytesTotal.WithLabelValues(label).Add(float64(n))
	}
}

// RecordSubmitted counts a record accepted by the sink.
func (Observer) RecordSubmitted() {
	scraperRecordsTotal.Inc()
}

// TaskEnqueued counts a follow-up task.
func (Observer) TaskEnqueued(task crawler.Task) {
	scraperTasksEnqueuedTotal.WithLabelValues(string(task.Parser)).Inc()
}

// TaskDropped counts an empty task.
func (Observer) TaskDropped() {
	scraperTasksDroppedTotal.Inc()
}
