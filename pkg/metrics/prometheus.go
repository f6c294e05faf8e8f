// Package metrics provides Prometheus metrics for the tour leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the leaderboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Standings - one computation per scope request
	standingsComputed *prometheus.CounterVec
	standingsLatency  *prometheus.HistogramVec
	standingsPlayers  *prometheus.GaugeVec
	factsInScope      *prometheus.GaugeVec

	// Snapshots
	snapshotsPersisted  *prometheus.CounterVec
	snapshotsSkipped    *prometheus.CounterVec
	snapshotRowsWritten *prometheus.CounterVec
	snapshotLastUnix    *prometheus.GaugeVec
	snapshotDuplicates  prometheus.Counter

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec
	repositoryRecords      *prometheus.GaugeVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tourboard",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.standingsComputed = m.counterVec("standings_computed_total",
		"Total number of standings computations by scope", "scope")
	m.standingsLatency = m.histogramVec("standings_latency_milliseconds",
		"Standings computation latency in milliseconds", "scope")
	m.standingsPlayers = m.gaugeVec("standings_players",
		"Number of ranked players in the last computation", "scope")
	m.factsInScope = m.gaugeVec("facts_in_scope",
		"Number of result facts that passed the scope filter in the last computation", "scope")

	m.snapshotsPersisted = m.counterVec("snapshots_persisted_total",
		"Total number of snapshots written", "scope")
	m.snapshotsSkipped = m.counterVec("snapshots_skipped_total",
		"Total number of snapshots skipped", "scope", "reason")
	m.snapshotRowsWritten = m.counterVec("snapshot_rows_written_total",
		"Total number of snapshot rows written", "scope")
	m.snapshotLastUnix = m.gaugeVec("snapshot_last_unix",
		"Unix time of the last persisted snapshot", "scope")
	m.snapshotDuplicates = m.counter("snapshot_jobs_duplicate_total",
		"Snapshot requests rejected because the same job was already in flight")

	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_milliseconds",
		"Repository call latency in milliseconds", "operation")
	m.repositoryRecords = m.gaugeVec("repository_records",
		"Number of records held by the repository", "table")

	m.queueSize = m.gauge("queue_size", "Current number of pending snapshot jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Snapshot job queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_percent", "Snapshot job queue utilization")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Total number of jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of failed enqueues")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Time a job waited in the queue in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Configured number of snapshot workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of running snapshot workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Snapshot job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed snapshot jobs")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by HTTP endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordStandingsComputed records one standings computation for scope.
func RecordStandingsComputed(scope string, latencyMs float64, players, facts int) {
	globalManager.standingsComputed.WithLabelValues(scope).Inc()
	globalManager.standingsLatency.WithLabelValues(scope).Observe(latencyMs)
	globalManager.standingsPlayers.WithLabelValues(scope).Set(float64(players))
	globalManager.factsInScope.WithLabelValues(scope).Set(float64(facts))
}

// RecordSnapshotPersisted records a written snapshot.
func RecordSnapshotPersisted(scope string, rows int, unix float64) {
	globalManager.snapshotsPersisted.WithLabelValues(scope).Inc()
	globalManager.snapshotRowsWritten.WithLabelValues(scope).Add(float64(rows))
	globalManager.snapshotLastUnix.WithLabelValues(scope).Set(unix)
}

// RecordSnapshotSkipped records a snapshot that was not written.
func RecordSnapshotSkipped(scope, reason string) {
	globalManager.snapshotsSkipped.WithLabelValues(scope, reason).Inc()
}

// RecordSnapshotDuplicate increments the duplicate snapshot job counter.
func RecordSnapshotDuplicate() {
	globalManager.snapshotDuplicates.Inc()
}

// RecordRepositoryQueryLatency records repository call latency.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// UpdateRepositoryRecords sets the record count for a table.
func UpdateRepositoryRecords(table string, count int) {
	globalManager.repositoryRecords.WithLabelValues(table).Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization percentage.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long a job waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
