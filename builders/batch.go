package builders

import (
	"context"

	"relmap"
	"relmap/dbexec"
)

// Operation is anything the batch runner can execute against a shared
// executor. Every builder in this package implements it; results stay on
// the builder and are read through its Result method after the batch runs.
type Operation interface {
	run(ctx context.Context, exec dbexec.Executor) error
}

// Batch runs operations sequentially inside one transaction. The first
// failure rolls back everything already applied; on success all effects
// commit together.
type Batch struct {
	c   *Client
	ops []Operation
}

// NewBatch starts an empty batch on the client.
func (c *Client) NewBatch() *Batch {
	return &Batch{c: c}
}

// Add appends operations in execution order.
func (b *Batch) Add(ops ...Operation) *Batch {
	b.ops = append(b.ops, ops...)
	return b
}

// Run executes the batch. Nothing is retried; a failed batch leaves the
// database exactly as it was.
func (b *Batch) Run(ctx context.Context) error {
	if len(b.ops) == 0 {
		return relmap.Validationf("batch has no operations")
	}
	return b.c.Transaction(ctx, func(ctx context.Context, tc *Client) error {
		for _, op := range b.ops {
			if err := op.run(ctx, tc.executor); err != nil {
				return err
			}
		}
		return nil
	})
}
