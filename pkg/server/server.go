package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/logging"
	"github.com/getmockd/seedql/pkg/metrics"
	"github.com/getmockd/seedql/pkg/store"
)

// DefaultGroupHeader is the request header naming the seed group.
const DefaultGroupHeader = "X-Seed-Group"

// SeedIDHeader is set on responses answered by a seed.
const SeedIDHeader = "X-Seed-Id"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// GroupHeader overrides DefaultGroupHeader.
	GroupHeader string
	// Store persists seeds registered over HTTP. Nil disables persistence.
	Store *store.FileStore
	// Metrics records request metrics and serves /metrics. Nil disables both.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Server is the HTTP surface of seedql: the GraphQL endpoint of every mock
// instance, the seed management endpoints, health and metrics.
type Server struct {
	manager     *instance.Manager
	store       *store.FileStore
	metrics     *metrics.Metrics
	groupHeader string
	log         *slog.Logger

	handler    http.Handler
	httpServer *http.Server
}

// New creates a server over manager.
func New(manager *instance.Manager, opts Options) *Server {
	s := &Server{
		manager:     manager,
		store:       opts.Store,
		metrics:     opts.Metrics,
		groupHeader: opts.GroupHeader,
		log:         logging.Component(opts.Logger, "server"),
	}
	if s.groupHeader == "" {
		s.groupHeader = DefaultGroupHeader
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = s.observe(mux)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.manager.Close()
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs every request and records it in the metrics. The route label
// is the matched ServeMux pattern so label cardinality stays bounded.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, rec.status, elapsed)
		}
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}
