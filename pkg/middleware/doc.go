// Package middleware provides observability for URL state commits.
//
// Both observers implement commitqueue.Observer and can be combined with
// commitqueue.Observers:
//
//	scope := urlstate.NewScope(urlstate.Config{
//	    Observer: commitqueue.Observers(
//	        middleware.Prometheus(middleware.WithNamespace("myapp")),
//	        middleware.OpenTelemetry(middleware.WithTracerName("myapp")),
//	    ),
//	})
//
// # OpenTelemetry
//
// Every flush of a scope's queue becomes one span recording how many keys were
// merged and whether the commit was skipped because the location did not
// change.
//
// # Prometheus Metrics
//
// The Prometheus observer counts enqueued writes per key, flushes per result
// and observes merge size and commit latency. Expose the registry with
// promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
