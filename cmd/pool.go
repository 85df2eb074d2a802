package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// openPool connects to the configured database. maxConns <= 0 keeps the
// pgxpool default.
func openPool(ctx context.Context, maxConns int32) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DSN()
	if dsn == "" {
		return nil, eris.New("db: no database configured (set store.database_url or store.host)")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "db: parse connection string")
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping database")
	}

	zap.L().Debug("connected to database", zap.String("host", poolCfg.ConnConfig.Host))
	return pool, nil
}
