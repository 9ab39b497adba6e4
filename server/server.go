// Package server exposes search and perft over HTTP, with a websocket that streams perft
// counts depth by depth.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var log = slog.Default().With("package", "server")

// shutdownTimeout bounds how long in-flight requests get once the serve context is done.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP API server.
type Server struct {
	config   Config
	version  string
	pool     *Pool
	upgrader websocket.Upgrader
	server   *http.Server
}

// New returns a Server for config.
func New(config Config, version string) *Server {
	return &Server{
		config:  config,
		version: version,
		pool:    NewPool(config.MaxJobs),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Pool returns the job pool for monitoring.
func (s *Server) Pool() *Pool {
	return s.pool
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...any) {
	log.Error("handler panic", "panic", fmt.Sprint(args...))
}

// Handler returns the routed API with its middleware.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/search", s.search).Methods(http.MethodPost)
	api.HandleFunc("/perft", s.perft).Methods(http.MethodGet)
	api.HandleFunc("/divide", s.divide).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.stream)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "NOT_FOUND")
	})

	var h http.Handler = router
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	if s.config.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(s.config.AccessLog, h)
	}
	return h
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", ln.Addr().String(), "version", s.version)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
