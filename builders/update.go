package builders

import (
	"context"

	"relmap"
	"relmap/dbexec"
	"relmap/key"
	"relmap/planner"
	"relmap/query"
	"relmap/schema"
)

// relationSet is a queued has-many membership replacement.
type relationSet struct {
	desc *schema.RelationDescriptor
	ids  []key.Key
}

// UpdateBuilder mutates one row identified by a unique condition. Scalar
// sets, belongs-to connects, and has-many membership changes never share a
// SQL statement; each concern runs as its own planned write.
type UpdateBuilder struct {
	c       *Client
	binding *schema.Binding
	where   []query.Filter
	fields  map[string]any
	columns map[string]any
	lookups []DeferredLookup
	sets    []relationSet
	err     error
	result  schema.Record
}

// Update starts a single-row update for the named entity.
func (c *Client) Update(entity string) *UpdateBuilder {
	b := &UpdateBuilder{
		c:       c,
		fields:  make(map[string]any),
		columns: make(map[string]any),
	}
	b.binding, b.err = c.binding(entity)
	return b
}

// Where adds the unique condition identifying the row.
func (b *UpdateBuilder) Where(filters ...query.Filter) *UpdateBuilder {
	b.where = append(b.where, filters...)
	return b
}

// Set assigns a scalar field value.
func (b *UpdateBuilder) Set(field string, value any) *UpdateBuilder {
	b.fields[field] = value
	return b
}

// Connect repoints a belongs-to relation, directly for a primary-key match
// and through a deferred lookup otherwise.
func (b *UpdateBuilder) Connect(relation string, condition query.Filter) *UpdateBuilder {
	if b.err != nil {
		return b
	}
	desc, err := b.binding.Meta.Relation(relation)
	if err != nil {
		b.err = err
		return b
	}
	if desc.Kind != schema.BelongsTo {
		b.err = relmap.Validationf("relation %q is has-many; use SetChildren to write it", relation)
		return b
	}
	target, err := b.c.reg.Metadata(desc.TargetEntity)
	if err != nil {
		b.err = err
		return b
	}
	if condition.Op == query.OpEquals && condition.Field == target.PKField {
		if k, ok := key.FromValue(condition.Value); ok {
			b.columns[desc.FKColumn] = k.Value()
			return b
		}
	}
	b.lookups = append(b.lookups, DeferredLookup{
		TargetEntity: desc.TargetEntity,
		Condition:    condition,
		AssignColumn: desc.FKColumn,
	})
	return b
}

// Disconnect clears a nullable belongs-to relation.
func (b *UpdateBuilder) Disconnect(relation string) *UpdateBuilder {
	if b.err != nil {
		return b
	}
	desc, err := b.binding.Meta.Relation(relation)
	if err != nil {
		b.err = err
		return b
	}
	if desc.Kind != schema.BelongsTo {
		b.err = relmap.Validationf("relation %q is has-many; use SetChildren to write it", relation)
		return b
	}
	if !desc.FKNullable {
		b.err = relmap.Validationf("relation %q cannot be disconnected: foreign key %q is not nullable", relation, desc.FKColumn)
		return b
	}
	b.columns[desc.FKColumn] = nil
	return b
}

// SetChildren replaces a has-many relation's membership with exactly the
// given target keys: rows currently attached but absent from ids are
// detached, then the listed rows are attached.
func (b *UpdateBuilder) SetChildren(relation string, ids ...key.Key) *UpdateBuilder {
	if b.err != nil {
		return b
	}
	desc, err := b.binding.Meta.Relation(relation)
	if err != nil {
		b.err = err
		return b
	}
	if desc.Kind != schema.HasMany {
		b.err = relmap.Validationf("relation %q is belongs-to; use Connect to write it", relation)
		return b
	}
	b.sets = append(b.sets, relationSet{desc: desc, ids: ids})
	return b
}

// Exec runs the update and returns the row re-read after all writes. A
// condition matching no row fails with NotFoundForConditionError before
// anything is written.
func (b *UpdateBuilder) Exec(ctx context.Context) (schema.Record, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// Result returns the updated record after Exec or a batch run.
func (b *UpdateBuilder) Result() schema.Record { return b.result }

func (b *UpdateBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta
	if len(b.where) == 0 {
		return relmap.Validationf("update on entity %q requires a unique condition", meta.Name)
	}

	pk, err := b.c.lookupKey(ctx, exec, meta, b.where)
	if err != nil {
		return err
	}

	set := make(map[string]any, len(b.fields)+len(b.columns))
	for field, v := range b.fields {
		col, ok := meta.ColumnForField(field)
		if !ok {
			return relmap.Validationf("unknown field %q on entity %q", field, meta.Name)
		}
		set[col.Name] = writeValue(v)
	}
	for col, v := range b.columns {
		set[col] = v
	}
	if err := b.c.resolveDeferred(ctx, exec, b.lookups, set); err != nil {
		return err
	}

	if len(set) > 0 {
		q, err := planner.BuildUpdate(meta, set, []query.Filter{query.Equals(meta.PKField, pk.Value())})
		if err != nil {
			return err
		}
		if _, err := exec.ExecContext(ctx, q.SQL, q.Args...); err != nil {
			return err
		}
	}

	for _, rs := range b.sets {
		if rs.desc.FKNullable {
			q, err := planner.BuildDetachHasMany(rs.desc, pk, rs.ids)
			if err != nil {
				return err
			}
			if _, err := exec.ExecContext(ctx, q.SQL, q.Args...); err != nil {
				return err
			}
		} else if len(rs.ids) == 0 {
			return relmap.Validationf("relation %q cannot be emptied: foreign key %q is not nullable", rs.desc.Name, rs.desc.FKColumn)
		}
		if len(rs.ids) > 0 {
			q, err := planner.BuildAttachHasMany(rs.desc, pk, rs.ids)
			if err != nil {
				return err
			}
			if _, err := exec.ExecContext(ctx, q.SQL, q.Args...); err != nil {
				return err
			}
		}
	}

	rec, err := b.c.fetchByKey(ctx, exec, b.binding, pk)
	if err != nil {
		return err
	}
	b.c.log.DebugContext(ctx, "row updated", "entity", meta.Name, "key", pk.String())
	b.result = rec
	return nil
}

// UpdateManyBuilder applies one scalar set to every row matching a filter.
type UpdateManyBuilder struct {
	c       *Client
	binding *schema.Binding
	where   []query.Filter
	fields  map[string]any
	err     error
	count   int64
}

// UpdateMany starts a filtered bulk update for the named entity.
func (c *Client) UpdateMany(entity string) *UpdateManyBuilder {
	b := &UpdateManyBuilder{c: c, fields: make(map[string]any)}
	b.binding, b.err = c.binding(entity)
	return b
}

// Where adds filter predicates. An empty filter updates every row.
func (b *UpdateManyBuilder) Where(filters ...query.Filter) *UpdateManyBuilder {
	b.where = append(b.where, filters...)
	return b
}

// Set assigns a scalar field value.
func (b *UpdateManyBuilder) Set(field string, value any) *UpdateManyBuilder {
	b.fields[field] = value
	return b
}

// Exec runs the update and returns the number of affected rows.
func (b *UpdateManyBuilder) Exec(ctx context.Context) (int64, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return 0, err
	}
	return b.count, nil
}

// Result returns the affected-row count after Exec or a batch run.
func (b *UpdateManyBuilder) Result() int64 { return b.count }

func (b *UpdateManyBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta
	set := make(map[string]any, len(b.fields))
	for field, v := range b.fields {
		col, ok := meta.ColumnForField(field)
		if !ok {
			return relmap.Validationf("unknown field %q on entity %q", field, meta.Name)
		}
		set[col.Name] = writeValue(v)
	}
	q, err := planner.BuildUpdate(meta, set, b.where)
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
