package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kubenetlabs/doubler/internal/cache"
	"github.com/kubenetlabs/doubler/internal/config"
	"github.com/kubenetlabs/doubler/internal/handlers"
	"github.com/kubenetlabs/doubler/internal/metrics"
)

// Server is the HTTP server for the doubler API.
type Server struct {
	Router  chi.Router
	Config  config.Config
	Cache   *cache.Cache
	Metrics *metrics.Metrics
}

// New creates a new Server with all routes and middleware configured.
func New(cfg config.Config) *Server {
	r := chi.NewRouter()

	s := &Server{
		Router: r,
		Config: cfg,
		Cache:  cache.New(cfg.CacheTTL),
	}
	if cfg.MetricsEnabled {
		s.Metrics = metrics.New()
	}

	level, _ := cfg.SlogLevel()

	// Global middleware
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(CORSMiddleware(cfg.AllowedOrigins, level <= slog.LevelDebug))
	r.Use(chimw.Recoverer)
	r.Use(MaxBodySize(cfg.MaxBodyBytes))
	if s.Metrics != nil {
		r.Use(Instrument(s.Metrics))
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	dbl := &handlers.DoubleHandler{Cache: s.Cache, Metrics: s.Metrics}
	ver := &handlers.VersionHandler{}

	// Liveness probe
	s.Router.Get("/", handlers.Health)
	s.Router.Head("/", handlers.Health)

	s.Router.Route("/api", func(r chi.Router) {
		r.Post("/double", dbl.Double)
		r.Get("/version", ver.Get)
	})

	if s.Metrics != nil {
		s.Router.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
}

// Run binds addr and serves until ctx is cancelled, then shuts down
// gracefully within Config.ShutdownTimeout. A bind failure is returned
// before anything is served.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Cache.Start()
	defer s.Cache.Stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", context.Cause(ctx).Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
