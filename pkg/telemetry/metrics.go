// Package telemetry exports engine activity to Prometheus and
// OpenTelemetry. It observes the engine through the probe hook, so the
// reactive hot path stays untouched when telemetry is not attached.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pulseui/pulse/pkg/pulse"
)

// MetricsConfig configures the Prometheus metrics probe.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pulse").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for effect duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics probe.
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

// WithBuckets sets the histogram buckets for effect duration.
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

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "pulse",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// MetricsProbe is a pulse.Probe that records engine activity as
// Prometheus metrics.
//
// Metrics collected:
//   - pulse_signal_writes_total: Counter of signal writes that changed a value
//   - pulse_memo_recomputations_total: Counter of memo runs by outcome
//   - pulse_effect_runs_total: Counter of effect executions
//   - pulse_effect_skips_total: Counter of scheduled effects skipped as unchanged
//   - pulse_effect_duration_seconds: Histogram of effect body duration
//   - pulse_batch_flushes_total: Counter of batch flushes
//   - pulse_batch_listeners: Histogram of distinct listeners per flush
type MetricsProbe struct {
	signalWrites   prometheus.Counter
	memoRecomputes *prometheus.CounterVec
	effectRuns     prometheus.Counter
	effectSkips    prometheus.Counter
	effectDuration prometheus.Histogram
	batchFlushes   prometheus.Counter
	batchListeners prometheus.Histogram
}

// NewMetricsProbe builds a MetricsProbe and registers its collectors.
//
// Example:
//
//	probe := telemetry.NewMetricsProbe(
//	    telemetry.WithNamespace("myapp"),
//	)
//	pulse.SetProbe(probe)
//
//	http.Handle("/metrics", promhttp.Handler())
func NewMetricsProbe(opts ...MetricsOption) *MetricsProbe {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &MetricsProbe{
		signalWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total number of signal writes that changed a value",
			ConstLabels: config.ConstLabels,
		}),

		memoRecomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "memo_recomputations_total",
			Help:        "Total number of memo recomputations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect executions",
			ConstLabels: config.ConstLabels,
		}),

		effectSkips: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_skips_total",
			Help:        "Total number of scheduled effects skipped because no dependency changed",
			ConstLabels: config.ConstLabels,
		}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect body execution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		batchFlushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_flushes_total",
			Help:        "Total number of batch flushes",
			ConstLabels: config.ConstLabels,
		}),

		batchListeners: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_listeners",
			Help:        "Distinct listeners notified per batch flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// SignalWrite implements pulse.Probe.
func (p *MetricsProbe) SignalWrite(uint64) {
	p.signalWrites.Inc()
}

// MemoRecompute implements pulse.Probe.
func (p *MetricsProbe) MemoRecompute(_ uint64, changed bool) {
	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}
	p.memoRecomputes.WithLabelValues(outcome).Inc()
}

// EffectRun implements pulse.Probe.
func (p *MetricsProbe) EffectRun(_ uint64, d time.Duration) {
	p.effectRuns.Inc()
	p.effectDuration.Observe(d.Seconds())
}

// EffectSkip implements pulse.Probe.
func (p *MetricsProbe) EffectSkip(uint64) {
	p.effectSkips.Inc()
}

// BatchFlush implements pulse.Probe.
func (p *MetricsProbe) BatchFlush(listeners int) {
	p.batchFlushes.Inc()
	p.batchListeners.Observe(float64(listeners))
}

var _ pulse.Probe = (*MetricsProbe)(nil)
