package middleware

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/urlstate/pkg/commitqueue"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "urlstate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics observer.
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
		Namespace: "urlstate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a commitqueue.Observer that records queue and commit activity,
// plus session counters for hosts that serve scopes over WebSockets.
//
// Metrics collected:
//   - urlstate_enqueued_total: writes queued, by key
//   - urlstate_commits_total: flushes, by result (committed, skipped)
//   - urlstate_commit_entries: keys merged per flush
//   - urlstate_commit_duration_seconds: time spent reading, merging and committing
//   - urlstate_active_sessions: sessions currently connected
//   - urlstate_websocket_errors_total: WebSocket errors, by type
type Metrics struct {
	enqueuedTotal  *prometheus.CounterVec
	commitsTotal   *prometheus.CounterVec
	commitEntries  prometheus.Histogram
	commitDuration prometheus.Histogram
	activeSessions prometheus.Gauge
	wsErrors       *prometheus.CounterVec
}

var _ commitqueue.Observer = (*Metrics)(nil)

// Prometheus registers the metrics and returns the observer.
// Registering twice on the same registry panics, so create one per registry
// and share it between scopes.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	metrics := middleware.Prometheus(middleware.WithRegistry(reg))
//	scope := urlstate.NewScope(urlstate.Config{Observer: metrics})
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		enqueuedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "enqueued_total",
			Help:        "Total number of query writes queued for commit",
			ConstLabels: config.ConstLabels,
		}, []string{"key"}),

		commitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of queue flushes by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		commitEntries: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_entries",
			Help:        "Number of keys merged into each commit",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 4, 8, 16, 32},
		}),

		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Enqueued implements commitqueue.Observer.
func (m *Metrics) Enqueued(key string, _ commitqueue.Value) {
	m.enqueuedTotal.WithLabelValues(key).Inc()
}

// CommitStarted implements commitqueue.Observer.
func (m *Metrics) CommitStarted(ctx context.Context, _ string, _ []commitqueue.Entry) context.Context {
	return ctx
}

// CommitFinished implements commitqueue.Observer.
func (m *Metrics) CommitFinished(_ context.Context, r commitqueue.Result) {
	result := "committed"
	if r.Skipped {
		result = "skipped"
	}
	m.commitsTotal.WithLabelValues(result).Inc()
	m.commitEntries.Observe(float64(len(r.Entries)))
	m.commitDuration.Observe(r.Duration.Seconds())
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed records a session ending.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// WebSocketError records a WebSocket error.
func (m *Metrics) WebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}
