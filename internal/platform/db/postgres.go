package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for a read-mostly aggregate workload: the overview fans out ten
// concurrent queries per request, so the pool must hold at least that many
// connections without starving a second caller.
const (
	defaultMaxConns        = 20
	defaultMinConns        = 2
	defaultMaxConnIdleTime = 5 * time.Minute
)

// New opens a pgx pool against the fact store and verifies connectivity
// before returning. Explicit pool parameters in the DSN win over the
// defaults.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", err)
	}
	if !strings.Contains(dsn, "pool_max_conns") {
		cfg.MaxConns = defaultMaxConns
		cfg.MinConns = defaultMinConns
		cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return pool, nil
}
