// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	RecommendationsTotal *prometheus.CounterVec
	RecommendationSize   prometheus.Histogram
	QueryLatency         *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	SnapshotBuildsTotal   *prometheus.CounterVec
	SnapshotBuildDuration prometheus.Histogram
	SnapshotCourses       prometheus.Gauge
	SnapshotVocabulary    prometheus.Gauge
	SuspiciousCourses     prometheus.Gauge

	CoursesImportedTotal prometheus.Counter
	RowsRejectedTotal    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		RecommendationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendations_total",
				Help: "Total recommendation queries by outcome (ok, empty, not_found, invalid, error).",
			},
			[]string{"outcome"},
		),
		RecommendationSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recommendation_result_size",
				Help:    "Number of candidates returned per recommendation query.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Engine query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation", "cache_status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of recommendation cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of recommendation cache misses.",
			},
		),
		SnapshotBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshot_builds_total",
				Help: "Total snapshot rebuilds by status (ok, error).",
			},
			[]string{"status"},
		),
		SnapshotBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "snapshot_build_duration_seconds",
				Help:    "Wall-clock duration of snapshot rebuilds in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		SnapshotCourses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_courses",
				Help: "Number of courses in the active snapshot.",
			},
		),
		SnapshotVocabulary: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_vocabulary_terms",
				Help: "Vocabulary size of the active similarity index.",
			},
		),
		SuspiciousCourses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "snapshot_suspicious_courses",
				Help: "Number of courses flagged suspicious in the active snapshot.",
			},
		),
		CoursesImportedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "courses_imported_total",
				Help: "Total course rows loaded by the importer.",
			},
		),
		RowsRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "importer_rows_rejected_total",
				Help: "Total CSV rows rejected by the importer, by reason.",
			},
			[]string{"reason"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RecommendationsTotal,
		m.RecommendationSize,
		m.QueryLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SnapshotBuildsTotal,
		m.SnapshotBuildDuration,
		m.SnapshotCourses,
		m.SnapshotVocabulary,
		m.SuspiciousCourses,
		m.CoursesImportedTotal,
		m.RowsRejectedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
