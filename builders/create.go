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

// PostInsertOp is a child write that must run after its parent insert,
// because the children need the parent's generated key as their foreign
// key. Like DeferredLookup it is plain data; the create executor replays
// the queued builders once the parent key exists.
type PostInsertOp struct {
	FKColumn string
	Creates  []*CreateBuilder
}

// CreateBuilder accumulates one row insert: scalar field values, belongs-to
// connects (direct or deferred), and nested has-many creates.
type CreateBuilder struct {
	c       *Client
	binding *schema.Binding
	fields  map[string]any
	columns map[string]any
	lookups []DeferredLookup
	post    []PostInsertOp
	err     error
	result  schema.Record
}

// Create starts an insert for the named entity.
func (c *Client) Create(entity string) *CreateBuilder {
	b := &CreateBuilder{
		c:       c,
		fields:  make(map[string]any),
		columns: make(map[string]any),
	}
	b.binding, b.err = c.binding(entity)
	return b
}

// Set assigns a scalar field value.
func (b *CreateBuilder) Set(field string, value any) *CreateBuilder {
	b.fields[field] = value
	return b
}

// Connect attaches a belongs-to relation. A primary-key-equals condition
// assigns the foreign key immediately; any other unique condition queues a
// deferred lookup resolved just before the insert runs.
func (b *CreateBuilder) Connect(relation string, condition query.Filter) *CreateBuilder {
	if b.err != nil {
		return b
	}
	desc, err := b.binding.Meta.Relation(relation)
	if err != nil {
		b.err = err
		return b
	}
	if desc.Kind != schema.BelongsTo {
		b.err = relmap.Validationf("relation %q is has-many; use CreateChildren to write it", relation)
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

// CreateChildren queues nested has-many creates. The children run after the
// parent insert with the parent's key written into their foreign key.
func (b *CreateBuilder) CreateChildren(relation string, children ...*CreateBuilder) *CreateBuilder {
	if b.err != nil || len(children) == 0 {
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
	for _, child := range children {
		if child.err != nil {
			b.err = child.err
			return b
		}
		if schema.NormalizeEntityName(child.binding.Meta.Name) != schema.NormalizeEntityName(desc.TargetEntity) {
			b.err = relmap.Validationf("relation %q expects %q children, got %q", relation, desc.TargetEntity, child.binding.Meta.Name)
			return b
		}
	}
	b.post = append(b.post, PostInsertOp{FKColumn: desc.FKColumn, Creates: children})
	return b
}

// Exec runs the insert and returns the stored row, re-read by primary key
// so database defaults and generated values are reflected.
func (b *CreateBuilder) Exec(ctx context.Context) (schema.Record, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// Result returns the created record after Exec or a batch run.
func (b *CreateBuilder) Result() schema.Record { return b.result }

func (b *CreateBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta

	values := make(map[string]any, len(b.fields)+len(b.columns))
	for field, v := range b.fields {
		col, ok := meta.ColumnForField(field)
		if !ok {
			return relmap.Validationf("unknown field %q on entity %q", field, meta.Name)
		}
		values[col.Name] = writeValue(v)
	}
	for col, v := range b.columns {
		values[col] = v
	}

	if err := b.c.resolveDeferred(ctx, exec, b.lookups, values); err != nil {
		return err
	}

	q, err := planner.BuildInsert(meta, values)
	if err != nil {
		return err
	}
	res, err := exec.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return err
	}

	var pk key.Key
	if meta.PKAuto {
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		pk = key.Int64(id)
	} else {
		raw, ok := values[meta.PKColumn]
		if !ok {
			return relmap.Validationf("entity %q requires an explicit %q value", meta.Name, meta.PKField)
		}
		if pk, ok = key.FromValue(raw); !ok {
			return &relmap.TypeMismatchError{Field: meta.PKField, Expected: "key", Value: raw}
		}
	}

	for _, op := range b.post {
		for _, child := range op.Creates {
			child.columns[op.FKColumn] = pk.Value()
			if err := child.run(ctx, exec); err != nil {
				return err
			}
		}
	}

	rec, err := b.c.fetchByKey(ctx, exec, b.binding, pk)
	if err != nil {
		return err
	}
	b.c.log.DebugContext(ctx, "row created", "entity", meta.Name, "key", pk.String())
	b.result = rec
	return nil
}

// CreateManyBuilder accumulates a multi-row insert. Nested writes and
// deferred connects are not supported here; rows carry scalar fields only.
type CreateManyBuilder struct {
	c              *Client
	binding        *schema.Binding
	rows           []map[string]any
	skipDuplicates bool
	err            error
	count          int64
}

// CreateMany starts a multi-row insert for the named entity.
func (c *Client) CreateMany(entity string) *CreateManyBuilder {
	b := &CreateManyBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	return b
}

// Row appends one row as a field→value map.
func (b *CreateManyBuilder) Row(fields map[string]any) *CreateManyBuilder {
	b.rows = append(b.rows, fields)
	return b
}

// SkipDuplicates drops rows colliding on a unique key instead of failing.
func (b *CreateManyBuilder) SkipDuplicates() *CreateManyBuilder {
	b.skipDuplicates = true
	return b
}

// Exec runs the insert and returns the number of stored rows.
func (b *CreateManyBuilder) Exec(ctx context.Context) (int64, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return 0, err
	}
	return b.count, nil
}

// Result returns the stored-row count after Exec or a batch run.
func (b *CreateManyBuilder) Result() int64 { return b.count }

func (b *CreateManyBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta
	rows := make([]map[string]any, len(b.rows))
	for i, fields := range b.rows {
		row := make(map[string]any, len(fields))
		for field, v := range fields {
			col, ok := meta.ColumnForField(field)
			if !ok {
				return relmap.Validationf("unknown field %q on entity %q", field, meta.Name)
			}
			row[col.Name] = writeValue(v)
		}
		rows[i] = row
	}
	q, err := planner.BuildInsertMany(meta, rows, b.skipDuplicates)
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

// writeValue unwraps mapper value types into driver-friendly values.
func writeValue(v any) any {
	if k, ok := v.(key.Key); ok {
		return k.Value()
	}
	return v
}
