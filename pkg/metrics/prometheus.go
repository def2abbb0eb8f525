// Package metrics provides Prometheus metrics for the raffle service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Draw outcome label values.
const (
	OutcomeSuccess         = "success"
	OutcomeConcurrent      = "concurrent"
	OutcomeEmptyPool       = "empty_pool"
	OutcomePersistence     = "persistence_error"
	OutcomeInternal        = "internal_error"
	SettingsResultAccepted = "accepted"
	SettingsResultRejected = "rejected"
)

// Manager manages all Prometheus metrics for the raffle service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Draw metrics
	drawsTotal          *prometheus.CounterVec
	drawDuration        prometheus.Histogram
	winnersDrawn        prometheus.Counter
	eligiblePoolSize    prometheus.Gauge
	eligiblePoolTickets prometheus.Gauge
	settingsUpdates     *prometheus.CounterVec
	rosterSize          prometheus.Gauge

	// Ledger metrics
	ledgerWinners       prometheus.Gauge
	ledgerAppendLatency prometheus.Histogram
	ledgerAppendErrors  prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Live feed metrics
	eventsPublished prometheus.Counter
	eventsDropped   prometheus.Counter
	publishErrors   *prometheus.CounterVec
	feedClients     prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
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
		namespace:        "raffle",
		subsystem:        "draws",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.drawsTotal = m.counterVec("total", "Draw attempts by outcome", "outcome")
	m.drawDuration = m.histogram("duration_milliseconds", "Draw duration in milliseconds, persistence included", m.histogramBuckets)
	m.winnersDrawn = m.counter("winners_total", "Winners recorded by successful draws")
	m.eligiblePoolSize = m.gauge("eligible_pool_size", "Eligible candidates at the start of the last draw")
	m.eligiblePoolTickets = m.gauge("eligible_pool_tickets", "Tickets held by the eligible pool at the start of the last draw")
	m.settingsUpdates = m.counterVec("settings_updates_total", "Configure calls by result", "result")
	m.rosterSize = m.gauge("roster_size", "Candidates in the loaded roster")

	m.ledgerWinners = m.gauge("ledger_winners", "Winners recorded in the ledger")
	m.ledgerAppendLatency = m.histogram("ledger_append_latency_milliseconds", "Ledger batch append latency", m.histogramBuckets)
	m.ledgerAppendErrors = m.counter("ledger_append_errors_total", "Failed ledger batch appends")

	m.queueSize = m.gauge("queue_size", "Draw events waiting to be published")
	m.queueCapacity = m.gauge("queue_capacity", "Draw event queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Draw event queue utilization (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Draw events enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Draw events dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Draw events rejected by the queue")

	m.eventsPublished = m.counter("events_published_total", "Draw events delivered to publishers")
	m.eventsDropped = m.counter("events_dropped_total", "Draw events dropped before publishing")
	m.publishErrors = m.counterVec("publish_errors_total", "Publisher failures", "publisher")
	m.feedClients = m.gauge("feed_clients", "Connected live feed clients")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("error_latency_milliseconds"),
		Help: "Latency of operations that resulted in errors", Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordDraw counts a draw attempt by outcome and observes its duration.
func RecordDraw(outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.drawsTotal.WithLabelValues(outcome).Inc()
	globalManager.drawDuration.Observe(durationMs)
}

// RecordWinnersDrawn adds n recorded winners.
func RecordWinnersDrawn(n int) {
	globalManager.winnersDrawn.Add(float64(n))
}

// UpdateEligiblePool sets the eligible pool gauges.
func UpdateEligiblePool(size int, tickets uint64) {
	globalManager.eligiblePoolSize.Set(float64(size))
	globalManager.eligiblePoolTickets.Set(float64(tickets))
}

// RecordSettingsUpdate counts a Configure call.
func RecordSettingsUpdate(result string) {
	globalManager.settingsUpdates.WithLabelValues(result).Inc()
}

// UpdateRosterSize sets the roster size gauge.
func UpdateRosterSize(n int) {
	globalManager.rosterSize.Set(float64(n))
}

// UpdateLedgerWinners sets the ledger size gauge.
func UpdateLedgerWinners(n int) {
	globalManager.ledgerWinners.Set(float64(n))
}

// RecordLedgerAppendLatency records a batch append latency in milliseconds.
func RecordLedgerAppendLatency(latencyMs float64) {
	globalManager.ledgerAppendLatency.Observe(latencyMs)
}

// RecordLedgerAppendError increments the failed append counter.
func RecordLedgerAppendError() {
	globalManager.ledgerAppendErrors.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordEventPublished increments the published draw events counter.
func RecordEventPublished() {
	globalManager.eventsPublished.Inc()
}

// RecordEventDropped increments the dropped draw events counter.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// RecordPublishError counts a failure of the named publisher.
func RecordPublishError(publisher string) {
	globalManager.publishErrors.WithLabelValues(publisher).Inc()
}

// UpdateFeedClients sets the number of live feed connections.
func UpdateFeedClients(n int) {
	globalManager.feedClients.Set(float64(n))
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
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
