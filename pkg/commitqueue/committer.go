package commitqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/urlstate/pkg/querycodec"
)

// DefaultQuietWindow is how long the queue must stay quiet before a commit.
const DefaultQuietWindow = 100 * time.Millisecond

// LocationFunc returns the current encoded location.
type LocationFunc func() string

// CommitFunc performs the navigation to an encoded location.
type CommitFunc func(search string)

// Options configures a Committer.
type Options struct {
	// QuietWindow is the debounce delay. Default: DefaultQuietWindow.
	QuietWindow time.Duration

	// Logger receives debug output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer is notified of enqueues and flushes. Optional.
	Observer Observer
}

// Committer flushes a Queue through a location reader and a commit callback.
type Committer struct {
	queue    *Queue
	location LocationFunc
	commit   CommitFunc
	opts     Options
	logger   *slog.Logger
	observer Observer
	debounce *Debouncer

	// flushMu is shared with committers created by Rebind so that commits
	// for one queue never overlap.
	flushMu *sync.Mutex
}

// New returns a Committer for q. A nil q gets a fresh queue.
func New(q *Queue, location LocationFunc, commit CommitFunc, opts Options) *Committer {
	return newCommitter(q, location, commit, opts, &sync.Mutex{})
}

func newCommitter(q *Queue, location LocationFunc, commit CommitFunc, opts Options, flushMu *sync.Mutex) *Committer {
	if q == nil {
		q = NewQueue()
	}
	if location == nil {
		location = func() string { return "" }
	}
	if commit == nil {
		commit = func(string) {}
	}
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = DefaultQuietWindow
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	c := &Committer{
		queue:    q,
		location: location,
		commit:   commit,
		opts:     opts,
		logger:   logger.With("component", "commitqueue"),
		observer: observer,
		flushMu:  flushMu,
	}
	c.debounce = NewDebouncer(opts.QuietWindow, c.flush)
	return c
}

// Enqueue records a write and restarts the quiet window.
func (c *Committer) Enqueue(key string, v Value) {
	c.queue.Put(key, v)
	c.observer.Enqueued(key, v)
	c.logger.Debug("enqueued", "key", key, "null", v.IsNull())
	c.debounce.Trigger()
}

// Pending returns the number of queued keys.
func (c *Committer) Pending() int {
	return c.queue.Pending()
}

// Queue returns the underlying queue.
func (c *Committer) Queue() *Queue {
	return c.queue
}

// QuietWindow returns the debounce delay in effect.
func (c *Committer) QuietWindow() time.Duration {
	return c.opts.QuietWindow
}

// Flush commits immediately instead of waiting for the quiet window.
func (c *Committer) Flush() {
	c.debounce.Cancel()
	c.flush()
}

// Stop cancels the pending flush. Queued writes are kept.
func (c *Committer) Stop() {
	c.debounce.Cancel()
}

// Rebind returns a Committer that shares this committer's queue but reads
// and commits through the given callbacks. This committer's timer is stopped
// and the new one is armed if writes are still pending.
func (c *Committer) Rebind(location LocationFunc, commit CommitFunc) *Committer {
	c.debounce.Cancel()
	next := newCommitter(c.queue, location, commit, c.opts, c.flushMu)
	if next.Pending() > 0 {
		next.debounce.Trigger()
	}
	return next
}

func (c *Committer) flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	entries := c.queue.Snapshot()
	if len(entries) == 0 {
		return
	}

	start := time.Now()
	before := c.location()
	ctx := c.observer.CommitStarted(context.Background(), before, entries)

	after := Overlay(before, entries)
	skipped := after == querycodec.Canonical(before)

	// The queue is empty by the time the commit callback runs, so a host
	// reconciling from inside the callback sees the location as authoritative.
	// Writes made since the snapshot stay queued for the next window.
	c.queue.Settle(entries)

	if skipped {
		c.logger.Debug("commit skipped, location unchanged", "search", after)
	} else {
		c.commit(after)
		c.logger.Debug("committed", "search", after, "entries", len(entries))
	}

	c.observer.CommitFinished(ctx, Result{
		Before:   before,
		After:    after,
		Entries:  entries,
		Skipped:  skipped,
		Duration: time.Since(start),
	})
}

// Overlay decodes current, applies entries on top of it and re-encodes the
// result. Existing keys keep their position, new keys are appended and null
// entries remove their key.
func Overlay(current string, entries []Entry) string {
	merged := querycodec.Decode(current)
	for _, e := range entries {
		if e.Value.IsNull() {
			merged.Del(e.Key)
			continue
		}
		merged.Set(e.Key, e.Value.String())
	}
	return querycodec.Encode(merged)
}
