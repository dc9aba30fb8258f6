package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/orchestrator"
	"github.com/nao1215/sitesearch/internal/search"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second

// Indexing starts, stops and performs indexing. *orchestrator.Orchestrator implements it.
type Indexing interface {
	Start(ctx context.Context) (*orchestrator.Run, error)
	Stop() error
	IndexPage(ctx context.Context, rawURL string) (*model.Page, error)
}

// Searcher answers searches. *search.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*model.SearchResponse, error)
}

// StatisticsProvider computes the statistics rollup. *stats.Service implements it.
type StatisticsProvider interface {
	Statistics(ctx context.Context) (*model.Statistics, error)
}

// Server is the HTTP API.
type Server struct {
	indexing Indexing
	searcher Searcher
	stats    StatisticsProvider
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server.
func NewServer(indexing Indexing, searcher Searcher, stats StatisticsProvider, opts ...Option) *Server {
	s := &Server{
		indexing: indexing,
		searcher: searcher,
		stats:    stats,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/statistics", s.handleStatistics)
		r.Get("/startIndexing", s.handleStartIndexing)
		r.Get("/stopIndexing", s.handleStopIndexing)
		r.Post("/indexPage", s.handleIndexPage)
		r.Get("/search", s.handleSearch)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// the server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
