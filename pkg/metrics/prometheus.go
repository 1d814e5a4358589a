// Package metrics provides Prometheus metrics for the ZeroDeadline service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Risk scores from the latest evaluation.
	basicScore    prometheus.Gauge
	scheduleScore prometheus.Gauge
	combinedScore prometheus.Gauge
	stressMean    prometheus.Gauge
	evaluations   prometheus.Counter
	degraded      *prometheus.CounterVec

	// History
	historyAppended prometheus.Counter
	historySkipped  prometheus.Counter
	historySize     prometheus.Gauge

	// Inputs
	stressRecorded   prometheus.Counter
	stressDuplicates prometheus.Counter
	schedulesTotal   prometheus.Gauge

	// Stores
	storeLatency *prometheus.HistogramVec

	// External services
	llmRequests      *prometheus.CounterVec
	llmRetries       prometheus.Counter
	llmLatency       prometheus.Histogram
	calendarRequests *prometheus.CounterVec

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

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "zerodeadline",
		subsystem:        "risk",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.basicScore = m.gauge("basic_score", "Basic schedule-risk score of the latest evaluation")
	m.scheduleScore = m.gauge("schedule_score", "Cumulative schedule-risk score of the latest evaluation")
	m.combinedScore = m.gauge("combined_score", "Combined risk index of the latest evaluation")
	m.stressMean = m.gauge("stress_mean", "Mean self-reported stress used in the latest evaluation")
	m.evaluations = m.counter("evaluations_total", "Total number of risk evaluations")
	m.degraded = m.counterVec("degraded_evaluations_total", "Evaluations where a sub-score fell back", "part")

	m.historyAppended = m.counter("history_appended_total", "History entries appended")
	m.historySkipped = m.counter("history_skipped_total", "History records skipped because the risk did not change")
	m.historySize = m.gauge("history_size", "Number of entries in the risk history")

	m.stressRecorded = m.counter("stress_samples_total", "Stress samples recorded")
	m.stressDuplicates = m.counter("stress_duplicates_total", "Stress samples ignored as duplicates")
	m.schedulesTotal = m.gauge("schedules", "Number of schedule items in the book")

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Latency of store operations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"store", "op"})

	m.llmRequests = m.counterVec("llm_requests_total", "LLM requests by outcome", "kind", "outcome")
	m.llmRetries = m.counter("llm_retries_total", "LLM request retries")
	m.llmLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "llm_latency_milliseconds",
		Help:      "LLM request latency in milliseconds including retries",
		Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})
	m.calendarRequests = m.counterVec("calendar_requests_total", "Calendar fetches by outcome", "outcome")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordEvaluation stores the scores of an evaluation.
func RecordEvaluation(basic, schedule, combined int, stressMean float64) {
	globalManager.evaluations.Inc()
	globalManager.basicScore.Set(float64(basic))
	globalManager.scheduleScore.Set(float64(schedule))
	globalManager.combinedScore.Set(float64(combined))
	globalManager.stressMean.Set(stressMean)
}

// RecordDegraded counts an evaluation part that fell back.
func RecordDegraded(part string) {
	globalManager.degraded.WithLabelValues(part).Inc()
}

// RecordHistoryAppend counts a history record attempt.
func RecordHistoryAppend(appended bool) {
	if appended {
		globalManager.historyAppended.Inc()
		return
	}
	globalManager.historySkipped.Inc()
}

// UpdateHistorySize sets the number of history entries.
func UpdateHistorySize(n int) {
	globalManager.historySize.Set(float64(n))
}

// RecordStressSample counts a stress submission.
func RecordStressSample(duplicate bool) {
	if duplicate {
		globalManager.stressDuplicates.Inc()
		return
	}
	globalManager.stressRecorded.Inc()
}

// UpdateSchedulesTotal sets the number of schedule items.
func UpdateSchedulesTotal(n int) {
	globalManager.schedulesTotal.Set(float64(n))
}

// RecordStoreLatency records a store operation latency.
func RecordStoreLatency(store, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(store, op).Observe(latencyMs)
}

// RecordLLMRequest counts a finished LLM request.
func RecordLLMRequest(kind, outcome string, latencyMs float64) {
	globalManager.llmRequests.WithLabelValues(kind, outcome).Inc()
	globalManager.llmLatency.Observe(latencyMs)
}

// RecordLLMRetry counts one retry of an LLM call.
func RecordLLMRetry() {
	globalManager.llmRetries.Inc()
}

// RecordCalendarRequest counts a calendar fetch.
func RecordCalendarRequest(outcome string) {
	globalManager.calendarRequests.WithLabelValues(outcome).Inc()
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

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
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
