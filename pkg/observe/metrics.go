package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is where collectors are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
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
		Namespace: "reactor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records runtime activity in Prometheus collectors.
type Metrics struct {
	flushesTotal      *prometheus.CounterVec
	flushDuration     prometheus.Histogram
	queueDepth        prometheus.Gauge
	computationsTotal *prometheus.CounterVec
	computationTime   *prometheus.HistogramVec
	patchDuration     prometheus.Histogram
	hooksTotal        *prometheus.CounterVec
	reportsTotal      *prometheus.CounterVec
	instancesCreated  prometheus.Counter
	instancesLive     prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
//
// Metrics collected:
//   - reactor_flushes_total: flushes by outcome (ok, aborted)
//   - reactor_flush_duration_seconds: wall time per flush
//   - reactor_queue_depth: computations pending when the last flush started
//   - reactor_computations_total: computations run by kind (render, user)
//   - reactor_computation_duration_seconds: run time by kind
//   - reactor_patch_duration_seconds: render plus patch time per instance update
//   - reactor_hooks_total: lifecycle hooks fired by hook name
//   - reactor_reports_total: reports by kind and code
//   - reactor_instances_created_total / reactor_instances_live
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queue_depth",
			Help:        "Computations pending when the last flush started",
			ConstLabels: config.ConstLabels,
		}),

		computationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computations_total",
			Help:        "Total number of computations run by a flush",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		computationTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_duration_seconds",
			Help:        "Computation run time in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		patchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_duration_seconds",
			Help:        "Instance patch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		hooksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hooks_total",
			Help:        "Total lifecycle hooks fired",
			ConstLabels: config.ConstLabels,
		}, []string{"hook"}),

		reportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reports_total",
			Help:        "Total errors and warnings reported",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "code"}),

		instancesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "instances_created_total",
			Help:        "Total component instances created",
			ConstLabels: config.ConstLabels,
		}),

		instancesLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "instances_live",
			Help:        "Component instances not yet destroyed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func computationKind(c *reactive.Computation) string {
	if c.IsRender() {
		return "render"
	}
	return "user"
}

// FlushStarted implements scheduler.Observer.
func (m *Metrics) FlushStarted(pending int) {
	m.queueDepth.Set(float64(pending))
}

// ComputationRan implements scheduler.Observer.
func (m *Metrics) ComputationRan(c *reactive.Computation, elapsed time.Duration) {
	kind := computationKind(c)
	m.computationsTotal.WithLabelValues(kind).Inc()
	m.computationTime.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// FlushFinished implements scheduler.Observer.
func (m *Metrics) FlushFinished(_ int, elapsed time.Duration, aborted bool) {
	outcome := "ok"
	if aborted {
		outcome = "aborted"
	}
	m.flushesTotal.WithLabelValues(outcome).Inc()
	m.flushDuration.Observe(elapsed.Seconds())
}

// InstanceCreated implements component.Observer.
func (m *Metrics) InstanceCreated(*component.Instance) {
	m.instancesCreated.Inc()
	m.instancesLive.Inc()
}

// HookCalled implements component.Observer.
func (m *Metrics) HookCalled(_ *component.Instance, hook component.Hook) {
	m.hooksTotal.WithLabelValues(string(hook)).Inc()
}

// InstancePatched implements component.Observer.
func (m *Metrics) InstancePatched(_ *component.Instance, _, _ *vdom.VNode, elapsed time.Duration) {
	m.patchDuration.Observe(elapsed.Seconds())
}

// InstanceDestroyed implements component.Observer.
func (m *Metrics) InstanceDestroyed(*component.Instance) {
	m.instancesLive.Dec()
}

// Reported implements component.Observer.
func (m *Metrics) Reported(e *report.Error) {
	m.reportsTotal.WithLabelValues(e.Kind.String(), e.Code).Inc()
}
