package builders

import (
	"context"

	"relmap"
	"relmap/dbexec"
	"relmap/key"
	"relmap/planner"
	"relmap/query"
	"relmap/registry"
	"relmap/schema"
	"relmap/selection"
)

// FindManyBuilder fetches rows with filtering, ordering, pagination, field
// selection, and nested includes.
type FindManyBuilder struct {
	c        *Client
	binding  *schema.Binding
	filters  []query.Filter
	orderBy  []query.OrderTerm
	relOrder []query.RelationCountOrder
	take     *int64
	skip     *int64
	cursor   *key.Key
	distinct bool
	selected []string
	includes []query.RelationFilter
	err      error
	result   []schema.Record
}

// FindMany starts a row fetch for the named entity.
func (c *Client) FindMany(entity string) *FindManyBuilder {
	b := &FindManyBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	return b
}

// FindUnique starts a single-row fetch by a unique condition. Exactly one
// filter set is expected; use First to read the result.
func (c *Client) FindUnique(entity string, filters ...query.Filter) *FindManyBuilder {
	return c.FindMany(entity).Where(filters...).Take(1)
}

// FindFirst starts a fetch of the first row matching the filters under the
// declared ordering.
func (c *Client) FindFirst(entity string, filters ...query.Filter) *FindManyBuilder {
	return c.FindMany(entity).Where(filters...).Take(1)
}

// Where appends filter predicates.
func (b *FindManyBuilder) Where(filters ...query.Filter) *FindManyBuilder {
	b.filters = append(b.filters, filters...)
	return b
}

// OrderBy appends an ordering term.
func (b *FindManyBuilder) OrderBy(field string, order query.SortOrder) *FindManyBuilder {
	b.orderBy = append(b.orderBy, query.OrderTerm{Field: field, Order: order})
	return b
}

// OrderByRelationCount orders rows by the size of a has-many relation.
func (b *FindManyBuilder) OrderByRelationCount(relation string, order query.SortOrder) *FindManyBuilder {
	b.relOrder = append(b.relOrder, query.RelationCountOrder{Relation: relation, Order: order})
	return b
}

// Take limits the number of fetched rows.
func (b *FindManyBuilder) Take(n int64) *FindManyBuilder {
	b.take = &n
	return b
}

// Skip offsets the fetched rows.
func (b *FindManyBuilder) Skip(n int64) *FindManyBuilder {
	b.skip = &n
	return b
}

// Cursor positions the fetch at the row whose primary key equals k.
func (b *FindManyBuilder) Cursor(k key.Key) *FindManyBuilder {
	b.cursor = &k
	return b
}

// Distinct deduplicates fetched rows.
func (b *FindManyBuilder) Distinct() *FindManyBuilder {
	b.distinct = true
	return b
}

// Select restricts fetched fields to the given aliases; results are partial
// records. Keys needed by includes are selected regardless.
func (b *FindManyBuilder) Select(aliases ...string) *FindManyBuilder {
	b.selected = append([]string{}, aliases...)
	return b
}

// With adds a nested include fetched onto each result row.
func (b *FindManyBuilder) With(rf query.RelationFilter) *FindManyBuilder {
	b.includes = append(b.includes, rf)
	return b
}

// Exec fetches the rows and applies the include tree.
func (b *FindManyBuilder) Exec(ctx context.Context) ([]schema.Record, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// First is Exec for single-row reads: it returns the first fetched row, or
// nil when nothing matched.
func (b *FindManyBuilder) First(ctx context.Context) (schema.Record, error) {
	records, err := b.Exec(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// Result returns the fetched records after Exec or a batch run.
func (b *FindManyBuilder) Result() []schema.Record { return b.result }

func (b *FindManyBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	meta := b.binding.Meta

	var fields []string
	newRecord := b.binding.NewRecord
	if b.selected != nil {
		var err error
		fields, err = selection.RequiredFields(meta, b.selected, b.includes)
		if err != nil {
			return err
		}
		if b.binding.NewPartial == nil {
			return relmap.Validationf("entity %q does not support partial selection", meta.Name)
		}
		newRecord = b.binding.NewPartial
	}

	q, aliases, err := planner.BuildSelect(meta, planner.SelectSpec{
		Fields:               fields,
		Filters:              b.filters,
		OrderBy:              b.orderBy,
		OrderByRelationCount: b.relOrder,
		Take:                 b.take,
		Skip:                 b.skip,
		Cursor:               b.cursor,
		Distinct:             b.distinct,
	})
	if err != nil {
		return err
	}
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return err
	}
	records, err := registry.ScanRecords(rows, aliases, newRecord)
	rows.Close()
	if err != nil {
		return err
	}

	if err := b.c.includes.Apply(ctx, exec, meta, records, b.includes); err != nil {
		return err
	}
	b.result = records
	return nil
}

// CountBuilder counts rows matching a filter.
type CountBuilder struct {
	c       *Client
	binding *schema.Binding
	filters []query.Filter
	err     error
	count   int64
}

// Count starts a row count for the named entity.
func (c *Client) Count(entity string) *CountBuilder {
	b := &CountBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	return b
}

// Where appends filter predicates.
func (b *CountBuilder) Where(filters ...query.Filter) *CountBuilder {
	b.filters = append(b.filters, filters...)
	return b
}

// Exec returns the matching-row count.
func (b *CountBuilder) Exec(ctx context.Context) (int64, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return 0, err
	}
	return b.count, nil
}

// Result returns the count after Exec or a batch run.
func (b *CountBuilder) Result() int64 { return b.count }

func (b *CountBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	q, err := planner.BuildCount(b.binding.Meta, planner.SelectSpec{Filters: b.filters})
	if err != nil {
		return err
	}
	b.count, err = registry.ScanCount(ctx, exec, q)
	return err
}
