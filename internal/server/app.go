package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/m3ux/internal/shared"
)

// Options configures [New].
type Options struct {
	Addr       string
	OutputPath string      // file served at /playlist.m3u
	Runs       RunLister   // nil disables /runs
	Metrics    *Metrics    // nil disables /metrics
	Status     *Status     // nil starts a fresh one
	Logger     *log.Logger // nil discards
}

// Server serves the rewritten playlist with health, run history and metrics endpoints.
type Server struct {
	http   *http.Server
	router *BasicRouter
	status *Status
	logger *log.Logger
}

// New builds the router and registers every enabled endpoint.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Status == nil {
		opts.Status = NewStatus()
	}

	router := NewBasicRouter()
	router.Use(Recover(opts.Logger), Logging(opts.Logger))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Instrument("/metrics"))
	}

	router.Handler(NewPlaylistHandler(opts.OutputPath, opts.Logger))
	router.Handler(NewHealthHandler(opts.Status))
	if opts.Runs != nil {
		router.Handler(NewRunsHandler(opts.Runs, opts.Logger))
	}
	if opts.Metrics != nil {
		router.Handle(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		status: opts.Status,
		logger: opts.Logger,
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Status returns the run status shown on /healthz.
func (s *Server) Status() *Status {
	return s.status
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errs
}
