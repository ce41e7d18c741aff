package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voyagen/mythvault/internal/cache"
	"github.com/voyagen/mythvault/internal/config"
	"github.com/voyagen/mythvault/internal/logging"
	"github.com/voyagen/mythvault/internal/metrics"
	"github.com/voyagen/mythvault/internal/server"
	"github.com/voyagen/mythvault/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			st, closeStore, err := openStore(ctx, cfg, m)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := server.New(st, cfg.Server, logging.Component("http"), m, reg)
			logger.Info().Str("port", cfg.Server.Port).Str("cache", cfg.Cache.Backend).Msg("starting")
			return srv.ListenAndServe(ctx)
		},
	}
}

// openStore connects to the database and wraps it with the configured
// cache. The returned func releases everything opened here.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (store.Store, func(), error) {
	pg, err := store.Open(ctx, cfg.Database, logging.Component("store"), m)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	closers := []func(){pg.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	c, err := newCache(ctx, cfg.Cache)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if c == nil {
		return pg, cleanup, nil
	}
	closers = append(closers, func() { _ = c.Close() })

	log := logging.Component("cache")
	cs := store.NewCachedStore(pg, c, cfg.Cache.TTL, log, m)
	if cfg.Cache.FlushSchedule != "" {
		sched, err := store.ScheduleInvalidation(cfg.Cache.FlushSchedule, cs, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { <-sched.Stop().Done() })
	}
	return cs, cleanup, nil
}

// newCache builds the cache backend named in cfg, or nil for "none".
func newCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	log := logging.Component("cache")
	switch cfg.Backend {
	case "redis":
		r, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info().Msg("redis connected (caching enabled)")
		return r, nil
	case "memory":
		log.Info().Int("size_mb", cfg.SizeMB).Msg("in-process cache enabled")
		return cache.NewMemory(cfg.SizeMB), nil
	default:
		log.Info().Msg("caching disabled")
		return nil, nil
	}
}

// openPlain opens the database without a cache for one-shot commands.
func openPlain(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store.Postgres, error) {
	pg, err := store.Open(ctx, cfg.Database, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return pg, nil
}
