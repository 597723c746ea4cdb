package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the demo server.
type Config struct {
	// Address is the address to listen on (default: "localhost:3000").
	Address string

	// Catalog lists the keys every session binds (default: SearchCatalog).
	Catalog *Catalog

	// QuietWindow is the commit quiet window of each session's scope.
	// Default: commitqueue.DefaultQuietWindow.
	QuietWindow time.Duration

	// MetricsEnabled serves /metrics and records commit metrics.
	MetricsEnabled bool

	// MetricsNamespace is the Prometheus namespace (default: "urlstate").
	MetricsNamespace string

	// Registry collects the server's metrics. Default: a new registry, so
	// several servers can run in one process.
	Registry *prometheus.Registry

	// TracerName names the tracer used for commit spans.
	TracerName string

	// TracerProvider overrides the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// IncludeSearch records locations on commit spans.
	IncludeSearch bool

	// CheckOrigin validates WebSocket origins (default: SameOriginCheck).
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout bounds each WebSocket write (default: 10s).
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration

	// Logger for server output. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() Config {
	return Config{
		Address:          "localhost:3000",
		MetricsEnabled:   true,
		MetricsNamespace: "urlstate",
		TracerName:       "urlstate",
		CheckOrigin:      SameOriginCheck,
		WriteTimeout:     10 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.Catalog == nil {
		c.Catalog = SearchCatalog()
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.TracerName == "" {
		c.TracerName = d.TracerName
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// SameOriginCheck accepts WebSocket requests without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}
