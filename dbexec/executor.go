// Package dbexec abstracts statement execution over database/sql so the
// engine can run identically against a bare connection pool or an open
// transaction. It owns no SQL of its own; planned statements come from the
// planner package.
package dbexec

import (
	"context"
	"database/sql"
	"time"
)

// Rows abstracts sql.Rows so tests can substitute wrapped cursors.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

// Executor is the connection-like capability every engine component takes:
// it is satisfied by both *DB and *Tx, so deferred lookups and relation
// fetches run in whatever scope the caller operates in.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB executes statements against a pooled database handle and can open
// transactions.
type DB struct {
	db      *sql.DB
	metrics *Metrics
}

// NewDB wraps an existing handle. Use Open to construct one from options.
func NewDB(db *sql.DB, opts ...Option) *DB {
	d := &DB{db: db}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Option configures a DB.
type Option func(*DB)

// WithMetrics records statement counts and latencies on the given metrics.
func WithMetrics(m *Metrics) Option {
	return func(d *DB) { d.metrics = m }
}

// Unwrap exposes the underlying handle for pool management.
func (d *DB) Unwrap() *sql.DB { return d.db }

// Close closes the underlying pool.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	if d.db == nil {
		return nil, sql.ErrConnDone
	}
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.metrics.observe("query", start, err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if d.db == nil {
		return nil, sql.ErrConnDone
	}
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.metrics.observe("exec", start, err)
	return res, err
}

// Begin opens a transaction. The returned Tx satisfies Executor, so any
// builder can run inside it unchanged.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	if d.db == nil {
		return nil, sql.ErrConnDone
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, metrics: d.metrics}, nil
}

// Tx executes statements inside one open transaction. It is borrowed, not
// shared: the engine issues statements on it strictly sequentially.
type Tx struct {
	tx      *sql.Tx
	metrics *Metrics
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.metrics.observe("query", start, err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.metrics.observe("exec", start, err)
	return res, err
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }
