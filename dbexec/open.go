package dbexec

import (
	"context"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel/attribute"
)

// PoolConfig bounds the underlying connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens an instrumented database handle. The driver is registered by
// its blank import; traces are attached via otelsql so every statement the
// engine issues carries a span.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig, opts ...Option) (*DB, error) {
	db, err := otelsql.Open(driver, dsn, otelsql.WithAttributes(
		attribute.String("db.system", driver),
	))
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewDB(db, opts...), nil
}
