package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sitevault/sitevault/internal/config"
	"github.com/sitevault/sitevault/internal/database"
	"github.com/sitevault/sitevault/internal/session"
)

const (
	// readHeaderTimeout bounds how long a client may take to send its
	// request headers.
	readHeaderTimeout = 10 * time.Second

	// shutdownTimeout bounds the graceful drain of in-flight requests.
	shutdownTimeout = 10 * time.Second
)

// ErrMissingArchiveRoot is returned when the configuration has no
// archive root to serve from.
var ErrMissingArchiveRoot = errors.New("archive root is not configured")

// Server exposes archive sessions, listings, and snapshot files over
// HTTP.
type Server struct {
	cfg      *config.Config
	addr     string
	tracker  *session.Tracker
	fetchLog *database.FetchLog
	logger   *slog.Logger

	// baseCtx is the lifetime context for launched tasks. Run replaces
	// it so that shutting the server down also cancels running crawls.
	baseCtx context.Context
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFetchLog records every fetch of every launched session in the
// given log database.
func WithFetchLog(log *database.FetchLog) Option {
	return func(s *Server) {
		s.fetchLog = log
	}
}

// New creates a server from the configuration. The listen address falls
// back to config.DefaultAddr when unset.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg.ArchiveRoot == "" {
		return nil, ErrMissingArchiveRoot
	}

	s := &Server{
		cfg:     cfg,
		addr:    cfg.Addr,
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.addr == "" {
		s.addr = config.DefaultAddr
	}
	s.tracker = session.NewTracker(s.logger)

	return s, nil
}

// routes builds the chi router with all endpoints.
func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/archives", func(r chi.Router) {
		r.Post("/", s.handleCreateArchive)
		r.Get("/", s.handleListDomains)
		r.Get("/{domain}", s.handleListSessions)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.handleListTasks)
		r.Get("/{id}", s.handleGetTask)
		r.Delete("/{id}", s.handleCancelTask)
	})

	// Browse snapshots directly. Pages reference their assets and each
	// other relatively, so a plain file server is enough.
	r.Handle("/archive/*", http.StripPrefix("/archive", http.FileServer(http.Dir(s.cfg.ArchiveRoot))))

	return r
}

// Run serves until ctx is canceled, then drains in-flight requests and
// waits for running archive tasks to stop.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr, "archiveRoot", s.cfg.ArchiveRoot)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err

			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	// Launched tasks share ctx, so they are already canceling.
	s.tracker.Wait()

	return <-errCh
}
