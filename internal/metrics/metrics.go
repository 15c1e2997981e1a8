package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scheduler metrics
var (
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_queue_depth",
			Help: "Number of items currently waiting in the enrichment queue",
		},
	)

	SchedulerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_scheduler_running",
			Help: "Whether the enrichment scheduler is running (1 = running, 0 = idle)",
		},
	)

	ItemsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_items_processed_total",
			Help: "Total number of items taken through the enrichment pipeline",
		},
	)

	ItemFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_item_failures_total",
			Help: "Total number of per-item enrichment failures (item dropped, loop continues)",
		},
	)

	ItemsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_items_cancelled_total",
			Help: "Total number of items skipped due to cancellation",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_enricher_batch_duration_seconds",
			Help:    "Duration of one enrichment batch in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Derivative cache metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_cache_hits_total",
			Help: "Total derivative cache hits by tier",
		},
		[]string{"tier"}, // "memory", "disk"
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_cache_misses_total",
			Help: "Total derivative cache misses",
		},
	)

	CacheStores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_cache_stores_total",
			Help: "Total derivative cache stores",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_cache_evictions_total",
			Help: "Total memory-tier evictions (disk tier is never evicted)",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_cache_invalidations_total",
			Help: "Total derivative cache invalidations",
		},
	)
)

// Generator and reader metrics
var (
	DerivativeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_enricher_derivative_duration_seconds",
			Help:    "Derivative generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"}, // "thumbnail", "preview"
	)

	DerivativeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_derivative_failures_total",
			Help: "Total derivative generation failures (decode failures, missing files)",
		},
	)

	ExifToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_exiftool_invocations_total",
			Help: "Total external metadata tool invocations by operation",
		},
		[]string{"operation"}, // "read", "write", "preview"
	)

	ExifToolFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_exiftool_failures_total",
			Help: "Total external metadata tool failures by operation",
		},
		[]string{"operation"},
	)

	ReaderCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_reader_cache_hits_total",
			Help: "Total advisory metadata cache hits",
		},
	)
)

// Writer and monitor metrics
var (
	WriterDiskWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_writer_disk_writes_total",
			Help: "Total metadata write-back batches by status",
		},
		[]string{"status"}, // "ok", "error", "skipped_raw"
	)

	WriterLabelSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_writer_label_syncs_total",
			Help: "Total OS file-tag label syncs by status",
		},
		[]string{"status"}, // "ok", "error"
	)

	MonitorSuspends = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_monitor_suspends_total",
			Help: "Total filesystem monitor suspensions",
		},
	)

	MonitorEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_monitor_events_dropped_total",
			Help: "Total filesystem events dropped while the monitor was suspended",
		},
	)

	MonitorEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_enricher_monitor_events_total",
			Help: "Total filesystem events delivered to the application",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_enricher_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Filesystem resilience metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_fs_retry_attempts_total",
			Help: "Total filesystem operation retries after NFS stale handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_fs_retry_success_total",
			Help: "Total filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_fs_retry_failures_total",
			Help: "Total filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_enricher_fs_operation_duration_seconds",
			Help:    "Filesystem operation duration including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_fs_stale_errors_total",
			Help: "Total NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_enricher_fs_timeouts_total",
			Help: "Total filesystem operations abandoned after their timeout",
		},
		[]string{"operation"},
	)
)

// Memory pressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_memory_usage_ratio",
			Help: "Current memory usage as a fraction of the configured limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_enricher_memory_paused",
			Help: "Whether processing is paused due to memory pressure (1 = paused)",
		},
	)
)
