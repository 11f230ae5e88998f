package builders

import (
	"context"

	"relmap"
	"relmap/dbexec"
	"relmap/query"
	"relmap/schema"
)

// UpsertBuilder updates the row matching a unique condition when it exists
// and creates it otherwise. On the create path the update set is merged
// over the create values, so "increment-style" upserts land the same final
// state on both paths.
type UpsertBuilder struct {
	c       *Client
	binding *schema.Binding
	entity  string
	where   []query.Filter
	create  map[string]any
	update  map[string]any
	err     error
	result  schema.Record
}

// Upsert starts an update-or-create for the named entity.
func (c *Client) Upsert(entity string) *UpsertBuilder {
	b := &UpsertBuilder{
		c:      c,
		entity: entity,
		create: make(map[string]any),
		update: make(map[string]any),
	}
	b.binding, b.err = c.binding(entity)
	return b
}

// Where adds the unique condition.
func (b *UpsertBuilder) Where(filters ...query.Filter) *UpsertBuilder {
	b.where = append(b.where, filters...)
	return b
}

// Create assigns a field value used only when the row is created.
func (b *UpsertBuilder) Create(field string, value any) *UpsertBuilder {
	b.create[field] = value
	return b
}

// Update assigns a field value applied on the update path and merged into
// the create values on the create path.
func (b *UpsertBuilder) Update(field string, value any) *UpsertBuilder {
	b.update[field] = value
	return b
}

// Exec runs the upsert and returns the resulting row.
func (b *UpsertBuilder) Exec(ctx context.Context) (schema.Record, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// Result returns the stored record after Exec or a batch run.
func (b *UpsertBuilder) Result() schema.Record { return b.result }

func (b *UpsertBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta
	if len(b.where) == 0 {
		return relmap.Validationf("upsert on entity %q requires a unique condition", meta.Name)
	}

	pk, err := b.c.lookupKey(ctx, exec, meta, b.where)
	if err == nil {
		upd := b.c.Update(b.entity).Where(query.Equals(meta.PKField, pk.Value()))
		for field, v := range b.update {
			upd.Set(field, v)
		}
		if err := upd.run(ctx, exec); err != nil {
			return err
		}
		b.result = upd.Result()
		return nil
	}
	if !relmap.IsNotFoundForCondition(err) {
		return err
	}

	cr := b.c.Create(b.entity)
	for field, v := range b.create {
		cr.Set(field, v)
	}
	for field, v := range b.update {
		cr.Set(field, v)
	}
	if err := cr.run(ctx, exec); err != nil {
		return err
	}
	b.result = cr.Result()
	return nil
}
