package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/urlstate/internal/errors"
	"github.com/vango-dev/urlstate/pkg/commitqueue"
	"github.com/vango-dev/urlstate/pkg/history"
	"github.com/vango-dev/urlstate/pkg/middleware"
)

// Server hosts the demo page and one WebSocket session per browser tab.
type Server struct {
	config   Config
	router   chi.Router
	upgrader websocket.Upgrader
	observer commitqueue.Observer
	metrics  *middleware.Metrics
	logger   *slog.Logger

	mu         sync.Mutex
	sessions   map[string]*Session
	httpServer *http.Server
}

// New creates a server. Zero fields of config take their defaults.
func New(config Config) *Server {
	config = config.withDefaults()

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   config.Logger.With("component", "server"),
		sessions: make(map[string]*Session),
	}

	tracing := middleware.OpenTelemetry(
		middleware.WithTracerName(config.TracerName),
		middleware.WithTracerProvider(config.TracerProvider),
		middleware.WithIncludeSearch(config.IncludeSearch),
	)
	if config.MetricsEnabled {
		s.metrics = middleware.Prometheus(
			middleware.WithRegistry(config.Registry),
			middleware.WithNamespace(config.MetricsNamespace),
		)
		s.observer = commitqueue.Observers(s.metrics, tracing)
	} else {
		s.observer = tracing
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(s.accessLog)
		r.Get("/", s.handleIndex)
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("ok\n"))
		})
		if s.metrics != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
		}
	})
	return r
}

// accessLog logs each plain HTTP request at debug level.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

// Handler returns the server's router for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HandleWebSocket upgrades the request and serves a session until the
// client disconnects. The request's query string is the tab's location at
// connect time.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", errors.New("E201").Wrap(err))
		if s.metrics != nil {
			s.metrics.WebSocketError("upgrade")
		}
		return
	}

	opts := sessionOptions{
		initial:      history.Location{Search: r.URL.RawQuery},
		catalog:      s.config.Catalog,
		quietWindow:  s.config.QuietWindow,
		observer:     s.observer,
		writeTimeout: s.config.WriteTimeout,
		logger:       s.logger,
	}
	if s.metrics != nil {
		opts.events = s.metrics
	}
	session := newSession(ws, opts)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	session.serve()

	s.mu.Lock()
	delete(s.sessions, session.ID())
	s.mu.Unlock()
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return errors.New("E200").
			WithDetail("Could not listen on " + s.config.Address).
			WithSuggestion("Choose another port with --addr or server.port").
			Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("E200").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}
