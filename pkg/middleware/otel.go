package middleware

import (
	"context"
	"strings"

	"github.com/vango-dev/urlstate/pkg/commitqueue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for urlstate commits.
const defaultTracerName = "urlstate"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "urlstate").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeSearch records the before/after locations on the span.
	// Locations may carry user input, so this is disabled by default.
	IncludeSearch bool

	// Filter determines which flushes to trace.
	// Return true to trace, false to skip. If nil, all flushes are traced.
	Filter func(entries []commitqueue.Entry) bool
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeSearch enables recording locations on spans.
func WithIncludeSearch(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeSearch = include
	}
}

// WithCommitFilter sets a filter function for flushes.
func WithCommitFilter(filter func(entries []commitqueue.Entry) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// Tracing is a commitqueue.Observer that wraps each flush in a span.
type Tracing struct {
	config OTelConfig
	tracer trace.Tracer
}

var _ commitqueue.Observer = (*Tracing)(nil)

// tracingKey marks contexts whose span was started by this observer.
type tracingKey struct{}

// OpenTelemetry returns an observer that traces every commit.
//
// Each span is named "urlstate.commit" and carries the number of merged keys,
// the keys themselves and whether the commit was skipped.
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before creating scopes:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}
	return &Tracing{config: config, tracer: tracer}
}

// Enqueued implements commitqueue.Observer. Enqueues happen outside any
// span and are not traced.
func (t *Tracing) Enqueued(string, commitqueue.Value) {}

// CommitStarted implements commitqueue.Observer.
func (t *Tracing) CommitStarted(ctx context.Context, before string, entries []commitqueue.Entry) context.Context {
	if t.config.Filter != nil && !t.config.Filter(entries) {
		return ctx
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	attrs := []attribute.KeyValue{
		attribute.Int("urlstate.entries", len(entries)),
		attribute.String("urlstate.keys", strings.Join(keys, ",")),
	}
	if t.config.IncludeSearch {
		attrs = append(attrs, attribute.String("urlstate.before", before))
	}

	ctx, _ = t.tracer.Start(ctx, "urlstate.commit",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return context.WithValue(ctx, tracingKey{}, true)
}

// CommitFinished implements commitqueue.Observer.
func (t *Tracing) CommitFinished(ctx context.Context, r commitqueue.Result) {
	if traced, _ := ctx.Value(tracingKey{}).(bool); !traced {
		return
	}
	span := trace.SpanFromContext(ctx)

	span.SetAttributes(attribute.Bool("urlstate.skipped", r.Skipped))
	if t.config.IncludeSearch {
		span.SetAttributes(attribute.String("urlstate.after", r.After))
	}
	span.SetStatus(codes.Ok, "")
	span.End()
}
