// Package history provides the location side of URL state: a Location value,
// the provider and pusher interfaces bindings read from and commit through,
// an in-memory push-state history, and a Navigator that forwards commits to
// a browser over a WebSocket.
package history

import (
	"strings"
	"sync"
)

// Location is the query portion of a URL. A leading "?" is allowed.
type Location struct {
	Search string `json:"search"`
}

// Query returns the search string without its leading "?".
func (l Location) Query() string {
	return strings.TrimPrefix(l.Search, "?")
}

// Provider exposes the current location.
type Provider interface {
	Location() Location
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() Location

// Location calls f.
func (f ProviderFunc) Location() Location {
	return f()
}

// Pusher accepts navigations. Providers that also implement Pusher are used
// as the default commit target.
type Pusher interface {
	Push(Location)
}

// Mode determines how a navigation is recorded.
type Mode int

const (
	// ModePush adds a new history entry (default behavior).
	ModePush Mode = iota

	// ModeReplace replaces the current history entry.
	ModeReplace
)

// String returns the frame type used on the wire for m.
func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "push"
}

// Memory is an in-memory browser history. It is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[int]func(Location)
	nextID    int
}

// NewMemory returns a history whose single entry is search.
func NewMemory(search string) *Memory {
	return &Memory{
		entries:   []Location{{Search: search}},
		listeners: make(map[int]func(Location)),
	}
}

// Location returns the current entry.
func (m *Memory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Push adds loc after the current entry, dropping any forward entries.
func (m *Memory) Push(loc Location) {
	m.mu.Lock()
	m.entries = append(m.entries[:m.index+1], loc)
	m.index = len(m.entries) - 1
	m.mu.Unlock()
	m.notify(loc)
}

// Replace overwrites the current entry.
func (m *Memory) Replace(loc Location) {
	m.mu.Lock()
	m.entries[m.index] = loc
	m.mu.Unlock()
	m.notify(loc)
}

// Navigate records loc according to mode.
func (m *Memory) Navigate(loc Location, mode Mode) {
	if mode == ModeReplace {
		m.Replace(loc)
		return
	}
	m.Push(loc)
}

// Back moves to the previous entry. It reports false at the start of history.
func (m *Memory) Back() bool {
	return m.move(-1)
}

// Forward moves to the next entry. It reports false at the end of history.
func (m *Memory) Forward() bool {
	return m.move(1)
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// OnChange registers fn to run after every navigation, including Back and
// Forward. The returned function removes the listener.
func (m *Memory) OnChange(fn func(Location)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = next
	loc := m.entries[next]
	m.mu.Unlock()
	m.notify(loc)
	return true
}

func (m *Memory) notify(loc Location) {
	m.mu.Lock()
	listeners := make([]func(Location), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(loc)
	}
}
