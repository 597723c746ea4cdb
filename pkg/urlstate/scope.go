package urlstate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/urlstate/pkg/commitqueue"
	"github.com/vango-dev/urlstate/pkg/history"
	"github.com/vango-dev/urlstate/pkg/querycodec"
)

// Location is the encoded location bindings read from.
type Location = history.Location

// CommitFunc performs a navigation to the merged location.
type CommitFunc func(Location)

// Config configures a Scope.
type Config struct {
	// Commit performs the navigation. If nil, the location provider's Push
	// is used when it implements history.Pusher.
	Commit CommitFunc

	// Location provides the current location. If nil, the scope owns an
	// in-memory history starting at the empty location.
	Location history.Provider

	// QuietWindow is the debounce delay before queued writes are committed.
	// Default: commitqueue.DefaultQuietWindow.
	QuietWindow time.Duration

	// Logger for debug output. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer is notified of enqueues and commits (metrics, tracing).
	Observer commitqueue.Observer
}

// Scope groups bindings that share one commit queue. Writes from any of its
// bindings made within one quiet window are committed together.
type Scope struct {
	id     string
	logger *slog.Logger
	opts   commitqueue.Options

	mu        sync.RWMutex
	location  history.Provider
	commit    CommitFunc
	committer *commitqueue.Committer
	bindings  map[uint64]observer
	nextID    uint64
	closed    bool
}

// observer is the untyped view a scope has of its bindings.
type observer interface {
	observe(values *querycodec.Values) bool
}

// NewScope creates a scope with its own queue and committer.
func NewScope(cfg Config) *Scope {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scope{
		id:       uuid.NewString(),
		bindings: make(map[uint64]observer),
	}
	s.logger = logger.With("component", "urlstate", "scope", s.id)
	s.opts = commitqueue.Options{
		QuietWindow: cfg.QuietWindow,
		Logger:      s.logger,
		Observer:    cfg.Observer,
	}

	s.location, s.commit = s.resolve(cfg.Location, cfg.Commit)
	s.committer = commitqueue.New(nil, locationReader(s.location), s.commitWriter(s.commit), s.opts)
	return s
}

// resolve fills in the documented defaults for missing collaborators.
func (s *Scope) resolve(location history.Provider, commit CommitFunc) (history.Provider, CommitFunc) {
	if location == nil {
		location = history.NewMemory("")
	}
	if commit == nil {
		if p, ok := location.(history.Pusher); ok {
			commit = p.Push
		} else {
			logger := s.logger
			commit = func(loc Location) {
				logger.Warn("no commit target configured, navigation dropped", "search", loc.Search)
			}
		}
	}
	return location, commit
}

func locationReader(p history.Provider) commitqueue.LocationFunc {
	return func() string { return p.Location().Search }
}

// commitWriter runs fn, then reconciles every binding with the location it
// produced. Keys changed externally during the window are picked up even
// when the host does not call Observe after navigating.
func (s *Scope) commitWriter(fn CommitFunc) commitqueue.CommitFunc {
	return func(search string) {
		fn(Location{Search: search})
		s.Observe()
	}
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string {
	return s.id
}

// Location returns the current location from the scope's provider.
func (s *Scope) Location() Location {
	s.mu.RLock()
	p := s.location
	s.mu.RUnlock()
	return p.Location()
}

// Pending returns the number of keys waiting to be committed.
func (s *Scope) Pending() int {
	s.mu.RLock()
	c := s.committer
	s.mu.RUnlock()
	return c.Pending()
}

// Flush commits queued writes now instead of waiting for the quiet window.
func (s *Scope) Flush() {
	s.mu.RLock()
	c := s.committer
	s.mu.RUnlock()
	c.Flush()
}

// Reconfigure replaces the scope's collaborators. A nil argument keeps the
// current one. Queued writes are kept and committed through the new ones.
func (s *Scope) Reconfigure(commit CommitFunc, location history.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if location == nil {
		location = s.location
	}
	if commit == nil {
		commit = s.commit
	}
	s.location, s.commit = location, commit
	s.committer = s.committer.Rebind(locationReader(location), s.commitWriter(commit))
}

// Observe re-reads the location and lets every active binding reconcile
// with it. Hosts call it after each navigation. It returns the number of
// bindings whose value changed.
func (s *Scope) Observe() int {
	s.mu.RLock()
	loc := s.location.Location()
	targets := make([]observer, 0, len(s.bindings))
	for _, b := range s.bindings {
		targets = append(targets, b)
	}
	s.mu.RUnlock()

	values := querycodec.Decode(loc.Search)
	changed := 0
	for _, b := range targets {
		if b.observe(values) {
			changed++
		}
	}
	if changed > 0 {
		s.logger.Debug("reconciled with location", "search", loc.Search, "changed", changed)
	}
	return changed
}

// Close stops the pending commit and detaches every binding. Writes made
// through bindings of a closed scope are ignored.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.committer.Stop()
	s.bindings = make(map[uint64]observer)
}

func (s *Scope) enqueue(key string, v commitqueue.Value) {
	s.mu.RLock()
	c, closed := s.committer, s.closed
	s.mu.RUnlock()
	if closed {
		return
	}
	c.Enqueue(key, v)
}

func (s *Scope) register(b observer) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if !s.closed {
		s.bindings[s.nextID] = b
	}
	return s.nextID
}

func (s *Scope) unregister(id uint64) {
	s.mu.Lock()
	delete(s.bindings, id)
	s.mu.Unlock()
}
