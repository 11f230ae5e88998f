package builders

import (
	"context"

	"relmap"
	"relmap/dbexec"
	"relmap/planner"
	"relmap/query"
	"relmap/schema"
)

// DeleteBuilder removes one row identified by a unique condition and
// returns its last stored state.
type DeleteBuilder struct {
	c       *Client
	binding *schema.Binding
	where   []query.Filter
	err     error
	result  schema.Record
}

// Delete starts a single-row delete for the named entity.
func (c *Client) Delete(entity string) *DeleteBuilder {
	b := &DeleteBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	return b
}

// Where adds the unique condition identifying the row.
func (b *DeleteBuilder) Where(filters ...query.Filter) *DeleteBuilder {
	b.where = append(b.where, filters...)
	return b
}

// Exec deletes the row and returns it as read just before deletion. A
// condition matching no row fails with NotFoundForConditionError.
func (b *DeleteBuilder) Exec(ctx context.Context) (schema.Record, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// Result returns the deleted record after Exec or a batch run.
func (b *DeleteBuilder) Result() schema.Record { return b.result }

func (b *DeleteBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta
	if len(b.where) == 0 {
		return relmap.Validationf("delete on entity %q requires a unique condition", meta.Name)
	}

	pk, err := b.c.lookupKey(ctx, exec, meta, b.where)
	if err != nil {
		return err
	}
	rec, err := b.c.fetchByKey(ctx, exec, b.binding, pk)
	if err != nil {
		return err
	}
	if rec == nil {
		return &relmap.NotFoundForConditionError{Entity: meta.Name, Condition: condString(b.where)}
	}

	q, err := planner.BuildDelete(meta, []query.Filter{query.Equals(meta.PKField, pk.Value())})
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, q.SQL, q.Args...); err != nil {
		return err
	}
	b.c.log.DebugContext(ctx, "row deleted", "entity", meta.Name, "key", pk.String())
	b.result = rec
	return nil
}

// DeleteManyBuilder removes every row matching a filter.
type DeleteManyBuilder struct {
	c       *Client
	binding *schema.Binding
	where   []query.Filter
	err     error
	count   int64
}

// DeleteMany starts a filtered bulk delete for the named entity.
func (c *Client) DeleteMany(entity string) *DeleteManyBuilder {
	b := &DeleteManyBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	return b
}

// Where adds filter predicates. An empty filter deletes every row.
func (b *DeleteManyBuilder) Where(filters ...query.Filter) *DeleteManyBuilder {
	b.where = append(b.where, filters...)
	return b
}

// Exec runs the delete and returns the number of removed rows.
func (b *DeleteManyBuilder) Exec(ctx context.Context) (int64, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return 0, err
	}
	return b.count, nil
}

// Result returns the removed-row count after Exec or a batch run.
func (b *DeleteManyBuilder) Result() int64 { return b.count }

func (b *DeleteManyBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	q, err := planner.BuildDelete(b.binding.Meta, b.where)
	if err != nil {
		return err
	}
	res, err := exec.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return err
	}
	b.count, err = res.RowsAffected()
	return err
}
