package telemetry

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus recorder.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vbind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for event duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus recorder.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vbind",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Prometheus is a Recorder backed by Prometheus collectors.
//
// Metrics collected:
//   - vbind_dispatches_total: Counter of change notifications by op
//   - vbind_patches_total: Counter of DOM mutations by op
//   - vbind_list_patches_total: Counter of list render steps by strategy
//   - vbind_errors_total: Counter of reported errors by code and severity
//   - vbind_bindings: Gauge of live bindings
//   - vbind_events_total: Counter of client events by type and status
//   - vbind_event_duration_seconds: Histogram of client event handling time
//   - vbind_sessions: Gauge of live sessions
type Prometheus struct {
	dispatches    *prometheus.CounterVec
	patches       *prometheus.CounterVec
	listPatches   *prometheus.CounterVec
	errors        *prometheus.CounterVec
	bindings      prometheus.Gauge
	events        *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
	sessions      prometheus.Gauge
}

// The default registry accepts each collector once, so recorders built
// against it share one instance.
var (
	defaultMetrics   *Prometheus
	defaultMetricsMu sync.Mutex
)

// NewPrometheus creates a Prometheus recorder. Recorders created against the
// default registry are shared.
func NewPrometheus(opts ...MetricsOption) *Prometheus {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.Registry != prometheus.DefaultRegisterer {
		return initMetrics(config)
	}

	defaultMetricsMu.Lock()
	defer defaultMetricsMu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = initMetrics(config)
	}
	return defaultMetrics
}

func initMetrics(config MetricsConfig) *Prometheus {
	factory := promauto.With(config.Registry)

	return &Prometheus{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of model change notifications",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		patches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of DOM mutations applied by bindings",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		listPatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "list_patches_total",
			Help:        "Total number of list render steps by strategy",
			ConstLabels: config.ConstLabels,
		}, []string{"strategy"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of reported errors",
			ConstLabels: config.ConstLabels,
		}, []string{"code", "severity"}),

		bindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bindings",
			Help:        "Number of live bindings",
			ConstLabels: config.ConstLabels,
		}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events handled",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "event_duration_seconds",
			Help:        "Client event handling duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions",
			Help:        "Number of live sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (p *Prometheus) Dispatched(op string) {
	p.dispatches.WithLabelValues(op).Inc()
}

func (p *Prometheus) Patched(op string) {
	p.patches.WithLabelValues(op).Inc()
}

func (p *Prometheus) ListPatched(strategy string) {
	p.listPatches.WithLabelValues(strategy).Inc()
}

func (p *Prometheus) Reported(code, severity string) {
	p.errors.WithLabelValues(code, severity).Inc()
}

func (p *Prometheus) Bindings(delta int) {
	p.bindings.Add(float64(delta))
}

func (p *Prometheus) Event(typ string, d time.Duration, err error) {
	typ = eventLabel(typ)
	status := "success"
	if err != nil {
		status = "error"
	}
	p.events.WithLabelValues(typ, status).Inc()
	p.eventDuration.WithLabelValues(typ).Observe(d.Seconds())
}

func (p *Prometheus) Sessions(delta int) {
	p.sessions.Add(float64(delta))
}

// eventLabel folds event names a client may invent into a bounded label set.
func eventLabel(typ string) string {
	switch strings.ToLower(typ) {
	case "click", "dblclick", "input", "change", "submit", "keydown", "keyup",
		"focus", "blur", "compositionstart", "compositionend":
		return strings.ToLower(typ)
	default:
		return "other"
	}
}
