// Package metrics provides Prometheus metrics for the shiftsheet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the shiftsheet service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	rowBuckets       []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Parser metrics
	eventsSeen      prometheus.Counter
	shiftsExtracted prometheus.Counter
	eventsSkipped   *prometheus.CounterVec
	unknownRoles    prometheus.Counter

	// Generation metrics
	timesheetsGenerated prometheus.Counter
	generationFailures  *prometheus.CounterVec
	generationLatency   prometheus.Histogram
	rowsWritten         prometheus.Histogram
	hoursWritten        prometheus.Counter
	sourceFetchLatency  *prometheus.HistogramVec
	lastGenerationUnix  prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
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
		namespace:        "shiftsheet",
		subsystem:        "timesheet",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		rowBuckets:       prometheus.LinearBuckets(0, 10, 8),
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.eventsSeen = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("events_seen_total"),
		Help:        "Calendar events handed to the title parser",
		ConstLabels: labels,
	})

	m.shiftsExtracted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("shifts_extracted_total"),
		Help:        "Shift records produced by the title parser",
		ConstLabels: labels,
	})

	m.eventsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("events_skipped_total"),
			Help:        "Calendar events dropped by the title parser, by reason",
			ConstLabels: labels,
		},
		[]string{"reason"},
	)

	m.unknownRoles = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unknown_role_codes_total"),
		Help:        "Shift records whose role code did not resolve to a position",
		ConstLabels: labels,
	})

	m.timesheetsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("generated_total"),
		Help:        "Timesheet workbooks written successfully",
		ConstLabels: labels,
	})

	m.generationFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("generation_failures_total"),
			Help:        "Failed timesheet generations by stage",
			ConstLabels: labels,
		},
		[]string{"stage"},
	)

	m.generationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("generation_latency_milliseconds"),
		Help:        "End-to-end timesheet generation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.rowsWritten = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_written"),
		Help:        "Rows written per generated timesheet",
		Buckets:     m.rowBuckets,
		ConstLabels: labels,
	})

	m.hoursWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("hours_written_total"),
		Help:        "Sum of shift hours written into timesheets",
		ConstLabels: labels,
	})

	m.sourceFetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("source_fetch_latency_milliseconds"),
			Help:        "Calendar source fetch latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"source"},
	)

	m.lastGenerationUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("last_generation_unix_seconds"),
		Help:        "Unix time of the last successful generation",
		ConstLabels: labels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_errors_total"),
			Help:        "HTTP error responses by endpoint, method and error type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// RecordEventSeen counts one event considered by the parser.
func RecordEventSeen() {
	if globalManager != nil && globalManager.enabled {
		globalManager.eventsSeen.Inc()
	}
}

// RecordShiftExtracted counts one shift record emitted by the parser.
func RecordShiftExtracted() {
	if globalManager != nil && globalManager.enabled {
		globalManager.shiftsExtracted.Inc()
	}
}

// RecordEventSkipped counts one event dropped by the parser.
func RecordEventSkipped(reason string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.eventsSkipped.WithLabelValues(reason).Inc()
	}
}

// RecordUnknownRole counts one record with an unresolved role code.
func RecordUnknownRole() {
	if globalManager != nil && globalManager.enabled {
		globalManager.unknownRoles.Inc()
	}
}

// RecordTimesheetGenerated records a successful generation.
func RecordTimesheetGenerated(rows int, hours float64, latencyMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.timesheetsGenerated.Inc()
		globalManager.rowsWritten.Observe(float64(rows))
		globalManager.hoursWritten.Add(hours)
		globalManager.generationLatency.Observe(latencyMs)
		globalManager.lastGenerationUnix.SetToCurrentTime()
	}
}

// RecordGenerationFailure records a failed generation at the given stage.
func RecordGenerationFailure(stage string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.generationFailures.WithLabelValues(stage).Inc()
	}
}

// RecordSourceFetchLatency records how long a calendar source took to list events.
func RecordSourceFetchLatency(source string, latencyMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.sourceFetchLatency.WithLabelValues(source).Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records an error response for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
