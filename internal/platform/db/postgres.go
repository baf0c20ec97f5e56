package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Open connects a pgx pool and exposes it through database/sql. The returned
// close func releases both.
func Open(ctx context.Context, dsn string) (*sql.DB, func(), error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	closeFn := func() {
		_ = sqlDB.Close()
		pool.Close()
	}
	return sqlDB, closeFn, nil
}
