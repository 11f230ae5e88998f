// Package builders exposes the typed operation surface of the mapper: the
// fluent create/update/upsert/delete/find/aggregate builders and the batch
// runner. Builders accumulate a declarative description of one operation;
// Exec plans it through the planner, runs it on the executor, and shapes
// results back into records. Generated per-entity clients wrap these
// builders with concrete field enums.
package builders

import (
	"context"
	"log/slog"

	"relmap"
	"relmap/dbexec"
	"relmap/include"
	"relmap/registry"
	"relmap/schema"
)

// Client is the operation entry point: a database handle, the entity
// registry, and the include engine wired together. A Client is cheap and
// safe to share; transaction-scoped clients are derived per call.
type Client struct {
	db       *dbexec.DB // nil for transaction-scoped clients
	executor dbexec.Executor
	reg      *registry.Registry
	log      *slog.Logger
	includes *include.Engine
}

type Option func(*Client)

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(db *dbexec.DB, reg *registry.Registry, opts ...Option) *Client {
	c := &Client{db: db, executor: db, reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.includes = include.NewEngine(reg, c.log)
	return c
}

// Registry exposes the client's entity registry.
func (c *Client) Registry() *registry.Registry { return c.reg }

// Transaction runs fn against a transaction-scoped client. The transaction
// commits when fn returns nil and rolls back otherwise; nesting is not
// supported.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context, tc *Client) error) error {
	if c.db == nil {
		return relmap.Validationf("nested transactions are not supported")
	}
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}
	tc := &Client{executor: tx, reg: c.reg, log: c.log, includes: c.includes}
	if err := fn(ctx, tc); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.log.ErrorContext(ctx, "transaction rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// binding resolves the entity binding or surfaces the registry error.
func (c *Client) binding(entity string) (*schema.Binding, error) {
	return c.reg.Binding(entity)
}
