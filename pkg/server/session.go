package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/urlstate/internal/errors"
	"github.com/vango-dev/urlstate/pkg/commitqueue"
	"github.com/vango-dev/urlstate/pkg/history"
	"github.com/vango-dev/urlstate/pkg/urlstate"
)

// conn serializes writes to a WebSocket. Commits arrive on the debounce
// timer goroutine while replies are written from the read loop.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn

	writeTimeout time.Duration
}

func (c *conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteJSON(v)
}

// Session is one connected browser tab. It owns a Scope whose location is
// the tab's address bar as last reported, and whose commits are pushed back
// to the tab.
type Session struct {
	id        string
	conn      *conn
	navigator *history.Navigator
	scope     *urlstate.Scope
	fields    map[string]boundField
	logger    *slog.Logger
	events    sessionEvents

	closeOnce sync.Once
}

// sessionEvents receives session lifecycle notifications.
type sessionEvents interface {
	SessionOpened()
	SessionClosed()
	WebSocketError(errorType string)
}

type nopEvents struct{}

func (nopEvents) SessionOpened()        {}
func (nopEvents) SessionClosed()        {}
func (nopEvents) WebSocketError(string) {}

type sessionOptions struct {
	initial      history.Location
	catalog      *Catalog
	quietWindow  time.Duration
	observer     commitqueue.Observer
	writeTimeout time.Duration
	logger       *slog.Logger
	events       sessionEvents
}

func newSession(ws *websocket.Conn, opts sessionOptions) *Session {
	id := uuid.NewString()
	logger := opts.logger.With("session", id)
	c := &conn{ws: ws, writeTimeout: opts.writeTimeout}
	nav := history.NewNavigator(c, opts.initial, history.ModePush, logger)

	scope := urlstate.NewScope(urlstate.Config{
		Location:    nav,
		QuietWindow: opts.quietWindow,
		Logger:      logger,
		Observer:    opts.observer,
	})

	events := opts.events
	if events == nil {
		events = nopEvents{}
	}
	s := &Session{
		id:        id,
		conn:      c,
		navigator: nav,
		scope:     scope,
		fields:    opts.catalog.bind(scope),
		logger:    logger,
		events:    events,
	}
	events.SessionOpened()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Scope returns the session's scope.
func (s *Session) Scope() *urlstate.Scope {
	return s.scope
}

// Values returns the current value of every bound key.
func (s *Session) Values() map[string]any {
	values := make(map[string]any, len(s.fields))
	for k, f := range s.fields {
		values[k] = f.value()
	}
	return values
}

// serve runs the read loop until the connection closes.
func (s *Session) serve() {
	defer s.Close()

	s.logger.Debug("session started", "search", s.navigator.Location().Search)
	if err := s.conn.WriteJSON(s.state()); err != nil {
		s.events.WebSocketError("write")
		return
	}

	for {
		_, data, err := s.conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
				s.events.WebSocketError("read")
			}
			return
		}

		var reply any = s.state()
		if herr := s.handle(data); herr != nil {
			s.logger.Debug("client frame rejected", "error", herr)
			s.events.WebSocketError("frame")
			reply = ErrorFrame{Type: FrameError, Code: herr.Code, Message: herr.Error()}
		}
		if err := s.conn.WriteJSON(reply); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			s.events.WebSocketError("write")
			return
		}
	}
}

// handle applies one client frame to the session's bindings.
func (s *Session) handle(data []byte) *errors.Error {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return errors.New("E202").Wrap(err)
	}

	switch frame.Type {
	case FrameLocation:
		s.navigator.Observe(history.Location{Search: frame.Search})
		s.scope.Observe()
		return nil

	case FrameSet, FrameClear:
		f, ok := s.fields[frame.Key]
		if !ok {
			return errors.New("E203").WithDetail(fmt.Sprintf("key %q is not bound", frame.Key))
		}
		if frame.Type == FrameClear {
			f.clear()
			return nil
		}
		if err := f.setJSON(frame.Value); err != nil {
			return errors.New("E202").
				WithDetail(fmt.Sprintf("value for %q does not decode", frame.Key)).
				Wrap(err)
		}
		return nil
	}
	return errors.New("E202").WithDetail(fmt.Sprintf("unknown frame type %q", frame.Type))
}

func (s *Session) state() StateFrame {
	return StateFrame{Type: FrameState, Values: s.Values()}
}

// Close stops the scope, detaches the bindings and closes the connection.
// Writes still waiting for the quiet window are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, f := range s.fields {
			f.close()
		}
		s.scope.Close()
		_ = s.conn.ws.Close()
		s.events.SessionClosed()
		s.logger.Debug("session closed")
	})
}
