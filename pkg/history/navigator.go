package history

import (
	"log/slog"
	"sync"
)

// Frame is a navigation message sent to the browser.
// The client applies it with history.pushState or history.replaceState.
type Frame struct {
	Type   string `json:"type"`
	Search string `json:"search"`
}

// FrameWriter sends frames to a client. *websocket.Conn satisfies it, but
// callers sharing a connection between goroutines must serialize writes.
type FrameWriter interface {
	WriteJSON(v any) error
}

// Navigator tracks the location a remote client last reported and forwards
// commits to it. Pushes update the tracked location immediately so that the
// next flush merges on top of the committed state rather than a stale one.
type Navigator struct {
	mu      sync.Mutex
	out     FrameWriter
	current Location
	mode    Mode
	logger  *slog.Logger
}

// NewNavigator creates a navigator that writes frames to out.
// The session passes the location from the client handshake as initial.
func NewNavigator(out FrameWriter, initial Location, mode Mode, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		out:     out,
		current: initial,
		mode:    mode,
		logger:  logger.With("component", "navigator"),
	}
}

// Location returns the last known client location.
func (n *Navigator) Location() Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Observe records a location reported by the client (initial load, back or
// forward navigation, link clicks).
func (n *Navigator) Observe(loc Location) {
	n.mu.Lock()
	n.current = loc
	n.mu.Unlock()
}

// Push sends loc to the client using the navigator's mode.
func (n *Navigator) Push(loc Location) {
	n.mu.Lock()
	n.current = loc
	mode := n.mode
	n.mu.Unlock()

	if n.out == nil {
		return
	}
	frame := Frame{Type: mode.String(), Search: loc.Query()}
	if err := n.out.WriteJSON(frame); err != nil {
		n.logger.Warn("navigation frame not delivered", "search", frame.Search, "error", err)
	}
}
