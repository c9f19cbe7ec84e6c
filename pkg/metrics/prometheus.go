// Package metrics provides Prometheus metrics for the LTV ingest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingestion
	payloadsReceived prometheus.Counter
	payloadBytes     prometheus.Histogram
	eventsIngested   *prometheus.CounterVec
	eventsRejected   *prometheus.CounterVec
	ingestLatency    prometheus.Histogram

	// Reporting
	reportLatency     prometheus.Histogram
	reportCustomers   prometheus.Gauge
	customersExcluded *prometheus.CounterVec

	// Registry
	registeredTypes prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ltv",
		subsystem:        "service",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.payloadsReceived = auto.NewCounter(m.counterOpts(
		"payloads_received_total", "Total number of ingest payloads received"))
	m.payloadBytes = auto.NewHistogram(m.histogramOpts(
		"payload_bytes", "Size of ingest payloads in bytes",
		prometheus.ExponentialBuckets(256, 4, 8)))
	m.eventsIngested = auto.NewCounterVec(m.counterOpts(
		"events_ingested_total", "Events accepted by the ingestion pipeline by type"),
		[]string{"type"})
	m.eventsRejected = auto.NewCounterVec(m.counterOpts(
		"events_rejected_total", "Payload items dropped by the ingestion pipeline by rejection kind"),
		[]string{"kind"})
	m.ingestLatency = auto.NewHistogram(m.histogramOpts(
		"ingest_latency_milliseconds", "Time to parse, adapt and order one payload", m.histogramBuckets))

	m.reportLatency = auto.NewHistogram(m.histogramOpts(
		"report_latency_milliseconds", "Time to compute one LTV report", m.histogramBuckets))
	m.reportCustomers = auto.NewGauge(m.gaugeOpts(
		"report_customers", "Qualifying customers in the most recent LTV report"))
	m.customersExcluded = auto.NewCounterVec(m.counterOpts(
		"report_customers_excluded_total", "Customers left out of LTV reports by reason"),
		[]string{"reason"})

	m.registeredTypes = auto.NewGauge(m.gaugeOpts(
		"registered_event_types", "Event types with a registered processor"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Errors by component and error type"),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
}

// RecordPayload counts one ingest payload of the given size.
func (m *Manager) RecordPayload(bytes int) {
	if !m.enabled {
		return
	}
	m.payloadsReceived.Inc()
	m.payloadBytes.Observe(float64(bytes))
}

// RecordEventIngested counts an accepted event of eventType.
func (m *Manager) RecordEventIngested(eventType string) {
	if m.enabled {
		m.eventsIngested.WithLabelValues(eventType).Inc()
	}
}

// RecordEventRejected counts a dropped payload item.
func (m *Manager) RecordEventRejected(kind string) {
	if m.enabled {
		m.eventsRejected.WithLabelValues(kind).Inc()
	}
}

func (m *Manager) RecordIngestLatency(latencyMs float64) {
	if m.enabled {
		m.ingestLatency.Observe(latencyMs)
	}
}

func (m *Manager) RecordReportLatency(latencyMs float64) {
	if m.enabled {
		m.reportLatency.Observe(latencyMs)
	}
}

func (m *Manager) UpdateReportCustomers(count int) {
	if m.enabled {
		m.reportCustomers.Set(float64(count))
	}
}

// RecordCustomerExcluded counts a customer dropped from a report for reason.
func (m *Manager) RecordCustomerExcluded(reason string) {
	if m.enabled {
		m.customersExcluded.WithLabelValues(reason).Inc()
	}
}

func (m *Manager) UpdateRegisteredTypes(count int) {
	if m.enabled {
		m.registeredTypes.Set(float64(count))
	}
}

func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m.enabled {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if m.enabled {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// Package-level helpers record on the global manager.

func RecordPayload(bytes int) {
	globalManager.RecordPayload(bytes)
}

func RecordEventIngested(eventType string) {
	globalManager.RecordEventIngested(eventType)
}

func RecordEventRejected(kind string) {
	globalManager.RecordEventRejected(kind)
}

func RecordIngestLatency(latencyMs float64) {
	globalManager.RecordIngestLatency(latencyMs)
}

func RecordReportLatency(latencyMs float64) {
	globalManager.RecordReportLatency(latencyMs)
}

func UpdateReportCustomers(count int) {
	globalManager.UpdateReportCustomers(count)
}

func RecordCustomerExcluded(reason string) {
	globalManager.RecordCustomerExcluded(reason)
}

func UpdateRegisteredTypes(count int) {
	globalManager.UpdateRegisteredTypes(count)
}

func RecordHTTPRequest(endpoint, method, code string) {
	globalManager.RecordHTTPRequest(endpoint, method, code)
}

func RecordHTTPRequestDuration(endpoint, method, code string, duration float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, code, duration)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.UpdateSystemMemoryUsage(bytes)
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.UpdateSystemGoroutineCount(count)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
