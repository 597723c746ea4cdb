package commitqueue

import (
	"context"
	"time"
)

// Result describes one flush of the queue.
type Result struct {
	// Before is the location read when the flush started.
	Before string

	// After is the merged location handed to the commit callback.
	After string

	// Entries are the writes that were overlaid.
	Entries []Entry

	// Skipped is true when After matched Before and no commit was made.
	Skipped bool

	// Duration covers reading, merging and committing.
	Duration time.Duration
}

// Observer is notified of queue activity. Implementations must be safe for
// concurrent use; flushes run on timer goroutines.
type Observer interface {
	Enqueued(key string, v Value)
	CommitStarted(ctx context.Context, before string, entries []Entry) context.Context
	CommitFinished(ctx context.Context, r Result)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) Enqueued(string, Value) {}

func (NopObserver) CommitStarted(ctx context.Context, _ string, _ []Entry) context.Context {
	return ctx
}

func (NopObserver) CommitFinished(context.Context, Result) {}

// Observers fans notifications out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return NopObserver{}
	case 1:
		return out[0]
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) Enqueued(key string, v Value) {
	for _, o := range m {
		o.Enqueued(key, v)
	}
}

func (m multiObserver) CommitStarted(ctx context.Context, before string, entries []Entry) context.Context {
	for _, o := range m {
		ctx = o.CommitStarted(ctx, before, entries)
	}
	return ctx
}

func (m multiObserver) CommitFinished(ctx context.Context, r Result) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].CommitFinished(ctx, r)
	}
}
