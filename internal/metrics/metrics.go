package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_store_queries_total",
			Help: "Total number of metadata store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "image_browser_store_query_duration_seconds",
			Help:    "Metadata store query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	StoreRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_store_records",
			Help: "Number of metadata records currently held in memory",
		},
	)

	StoreBookmarksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_store_bookmarks",
			Help: "Number of bookmark records currently held in memory",
		},
	)
)

// Persistence metrics
var (
	FlushTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_flush_total",
			Help: "Total number of disk snapshot flushes",
		},
		[]string{"trigger", "status"}, // trigger: "debounce", "forced"
	)

	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_browser_flush_duration_seconds",
			Help:    "Disk snapshot flush duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	FlushRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_flush_retries_total",
			Help: "Total number of retried disk flush attempts",
		},
	)

	FlushLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_flush_last_timestamp",
			Help: "Timestamp of the last successful disk flush",
		},
	)

	DebounceScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_debounce_scheduled_total",
			Help: "Total number of debounced flush arm/re-arm events",
		},
	)

	CleanupRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "image_browser_cleanup_removed_total",
			Help: "Total number of stale records removed by the startup cleanup pass",
		},
	)
)

// Index builder metrics
var (
	BuildFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_build_files_processed_total",
			Help: "Total number of files processed by the index builder",
		},
		[]string{"status"}, // "new", "updated", "skipped", "error"
	)

	BuildLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "image_browser_build_last_run_duration_seconds",
			Help: "Duration of the last index build in seconds",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_browser_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_browser_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)
