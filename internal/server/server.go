// Package server exposes the PVR store as a read-only JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/voyagen/mythvault/internal/config"
	"github.com/voyagen/mythvault/internal/metrics"
	"github.com/voyagen/mythvault/internal/store"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	store   store.Store
	cfg     config.Server
	log     zerolog.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

// New creates a Server and registers routes. gatherer serves /metrics and
// may be nil to leave the endpoint out.
func New(s store.Store, cfg config.Server, logger zerolog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *Server {
	srv := &Server{store: s, cfg: cfg, log: logger, metrics: m, router: chi.NewRouter()}
	srv.routes(gatherer)
	return srv
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimw.Recoverer)
	r.Use(observe(s.metrics))
	if s.cfg.RateLimit > 0 {
		r.Use(s.rateLimit(s.cfg.RateLimit, time.Minute))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/backends", s.handleListBackends)
		r.Get("/backends/master", s.handleMasterBackend)
		r.Get("/backends/slaves", s.handleListSlaveBackends)
		r.Get("/backends/resolve/{token}", s.handleResolveBackend)

		r.Get("/channels", s.handleListChannels)
		r.Get("/tuners", s.handleListTuners)

		r.Get("/recording-groups", s.handleListRecordingGroups)
		r.Get("/recording-groups/{group}/titles", s.handleListRecordingTitles)

		r.Get("/settings/{key}", s.handleGetSetting)
		r.Get("/schedules", s.handleListSchedules)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/guide", s.handleGuide)

		r.Get("/docs", handleSwaggerUI)
		r.Get("/docs/openapi.yaml", handleOpenAPISpec)
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.Port
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("server shutdown")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	<-done
	return nil
}
