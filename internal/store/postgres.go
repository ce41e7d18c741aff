package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/voyagen/mythvault/internal/config"
	"github.com/voyagen/mythvault/internal/metrics"
)

// querier is the subset of pgxpool.Pool the query layer uses. Every call
// checks a connection out of the pool and returns it when the rows are closed.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool    *pgxpool.Pool
	db      querier
	log     zerolog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

// Open connects to the PVR database described by cfg and verifies the
// connection. Caller must call Close when done. Failures are returned as
// *ConnectionError.
func Open(ctx context.Context, cfg config.Database, logger zerolog.Logger, m *metrics.Metrics) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, &ConnectionError{Op: "open", Err: err}
	}
	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, &ConnectionError{Op: "open", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Op: "ping", Err: err}
	}

	logger.Info().
		Str("host", pcfg.ConnConfig.Host).
		Uint16("port", pcfg.ConnConfig.Port).
		Str("database", pcfg.ConnConfig.Database).
		Msg("connected to PVR database")

	return &Postgres{
		pool:    pool,
		db:      pool,
		log:     logger,
		metrics: m,
		timeout: cfg.QueryTimeout,
	}, nil
}

// Close closes the connection pool. It is safe to call more than once.
func (p *Postgres) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		if p.pool != nil {
			p.pool.Close()
		}
	})
}

// Ping checks the connection to the database.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.do(ctx, "Ping", func(ctx context.Context) error {
		if pg, ok := p.db.(pinger); ok {
			return pg.Ping(ctx)
		}
		return nil
	})
}

// do runs one unit of database work under the query timeout, classifying
// and recording its outcome. Errors are never retried.
func (p *Postgres) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if p.closed.Load() {
		err := &ConnectionError{Op: op, Err: ErrClosed}
		p.metrics.ObserveQuery(op, 0, errorKind(err), err)
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	err := classify(op, fn(ctx))
	elapsed := time.Since(start)
	p.metrics.ObserveQuery(op, elapsed, errorKind(err), err)

	if err != nil {
		p.log.Warn().Err(err).Str("op", op).Dur("elapsed", elapsed).Msg("query failed")
		return err
	}
	p.log.Trace().Str("op", op).Dur("elapsed", elapsed).Msg("query")
	return nil
}

// collect runs a query and maps every row with fn.
func collect[T any](ctx context.Context, p *Postgres, op, sql string, fn pgx.RowToFunc[T], args ...any) ([]T, error) {
	var out []T
	err := p.do(ctx, op, func(ctx context.Context) error {
		rows, err := p.db.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, fn)
		if err != nil {
			return fmt.Errorf("map rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
