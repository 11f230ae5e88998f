package builders

import (
	"context"

	"relmap/dbexec"
	"relmap/planner"
	"relmap/query"
	"relmap/schema"
)

// AggregateResult holds one aggregate row keyed by the planned result keys.
type AggregateResult struct {
	values map[string]any
}

// Count returns the row count, or zero when count was not selected.
func (r *AggregateResult) Count() int64 {
	if r == nil {
		return 0
	}
	n, _ := toInt64(r.values["_count"])
	return n
}

// Value returns the raw aggregate value for a function and field. Values
// come back as the driver produced them; averages are typically decimal
// strings on MySQL.
func (r *AggregateResult) Value(fn query.AggFunc, field string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[planner.AggregateResultKey(fn, field)]
	return v, ok
}

// AggregateBuilder computes aggregates over a filtered, optionally ordered
// and paginated dataset: pagination scopes the rows before aggregation.
type AggregateBuilder struct {
	c       *Client
	binding *schema.Binding
	sel     query.AggregateSelection
	filters []query.Filter
	orderBy []query.OrderTerm
	take    *int64
	skip    *int64
	err     error
	result  *AggregateResult
}

// Aggregate starts an aggregate computation for the named entity.
func (c *Client) Aggregate(entity string) *AggregateBuilder {
	b := &AggregateBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	return b
}

// CountRows selects COUNT(*).
func (b *AggregateBuilder) CountRows() *AggregateBuilder {
	b.sel.Count = true
	return b
}

// Avg selects AVG over the given fields.
func (b *AggregateBuilder) Avg(fields ...string) *AggregateBuilder {
	b.sel.Avg = append(b.sel.Avg, fields...)
	return b
}

// Sum selects SUM over the given fields.
func (b *AggregateBuilder) Sum(fields ...string) *AggregateBuilder {
	b.sel.Sum = append(b.sel.Sum, fields...)
	return b
}

// Min selects MIN over the given fields.
func (b *AggregateBuilder) Min(fields ...string) *AggregateBuilder {
	b.sel.Min = append(b.sel.Min, fields...)
	return b
}

// Max selects MAX over the given fields.
func (b *AggregateBuilder) Max(fields ...string) *AggregateBuilder {
	b.sel.Max = append(b.sel.Max, fields...)
	return b
}

// Where appends filter predicates.
func (b *AggregateBuilder) Where(filters ...query.Filter) *AggregateBuilder {
	b.filters = append(b.filters, filters...)
	return b
}

// OrderBy orders the underlying dataset before pagination.
func (b *AggregateBuilder) OrderBy(field string, order query.SortOrder) *AggregateBuilder {
	b.orderBy = append(b.orderBy, query.OrderTerm{Field: field, Order: order})
	return b
}

// Take limits the aggregated dataset.
func (b *AggregateBuilder) Take(n int64) *AggregateBuilder {
	b.take = &n
	return b
}

// Skip offsets the aggregated dataset.
func (b *AggregateBuilder) Skip(n int64) *AggregateBuilder {
	b.skip = &n
	return b
}

// Exec computes the aggregates.
func (b *AggregateBuilder) Exec(ctx context.Context) (*AggregateResult, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// Result returns the aggregate row after Exec or a batch run.
func (b *AggregateBuilder) Result() *AggregateResult { return b.result }

func (b *AggregateBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	q, columns, err := planner.BuildAggregate(b.binding.Meta, b.sel, planner.SelectSpec{
		Filters: b.filters,
		OrderBy: b.orderBy,
		Take:    b.take,
		Skip:    b.skip,
	})
	if err != nil {
		return err
	}
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	values := make(map[string]any, len(columns))
	if rows.Next() {
		dests := make([]any, len(columns))
		raw := make([]any, len(columns))
		for i := range raw {
			dests[i] = &raw[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return err
		}
		for i, col := range columns {
			values[col.ResultKey] = raw[i]
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	b.result = &AggregateResult{values: values}
	return nil
}

// GroupByRow is one grouped result: the grouping fields under their logical
// aliases plus the aggregate values under their result keys.
type GroupByRow map[string]any

// GroupByBuilder computes grouped aggregates with HAVING predicates over
// the aggregate values.
type GroupByBuilder struct {
	c       *Client
	binding *schema.Binding
	spec    planner.GroupBySpec
	err     error
	result  []GroupByRow
}

// GroupBy starts a grouped aggregate for the named entity.
func (c *Client) GroupBy(entity string, fields ...string) *GroupByBuilder {
	b := &GroupByBuilder{c: c}
	b.binding, b.err = c.binding(entity)
	b.spec.By = fields
	return b
}

// CountRows selects COUNT(*) per group.
func (b *GroupByBuilder) CountRows() *GroupByBuilder {
	b.spec.Sel.Count = true
	return b
}

// Avg selects AVG over the given fields per group.
func (b *GroupByBuilder) Avg(fields ...string) *GroupByBuilder {
	b.spec.Sel.Avg = append(b.spec.Sel.Avg, fields...)
	return b
}

// Sum selects SUM over the given fields per group.
func (b *GroupByBuilder) Sum(fields ...string) *GroupByBuilder {
	b.spec.Sel.Sum = append(b.spec.Sel.Sum, fields...)
	return b
}

// Min selects MIN over the given fields per group.
func (b *GroupByBuilder) Min(fields ...string) *GroupByBuilder {
	b.spec.Sel.Min = append(b.spec.Sel.Min, fields...)
	return b
}

// Max selects MAX over the given fields per group.
func (b *GroupByBuilder) Max(fields ...string) *GroupByBuilder {
	b.spec.Sel.Max = append(b.spec.Sel.Max, fields...)
	return b
}

// Where appends filter predicates over the ungrouped rows.
func (b *GroupByBuilder) Where(filters ...query.Filter) *GroupByBuilder {
	b.spec.Filters = append(b.spec.Filters, filters...)
	return b
}

// Having appends a predicate over an aggregate value.
func (b *GroupByBuilder) Having(h query.Having) *GroupByBuilder {
	b.spec.Having = append(b.spec.Having, h)
	return b
}

// OrderBy orders groups by an aggregate value.
func (b *GroupByBuilder) OrderBy(term query.AggOrderTerm) *GroupByBuilder {
	b.spec.OrderBy = append(b.spec.OrderBy, term)
	return b
}

// OrderByRelationCount orders groups by the size of a has-many relation.
func (b *GroupByBuilder) OrderByRelationCount(relation string, order query.SortOrder) *GroupByBuilder {
	b.spec.OrderByRelationCount = append(b.spec.OrderByRelationCount, query.RelationCountOrder{Relation: relation, Order: order})
	return b
}

// Take limits the number of groups.
func (b *GroupByBuilder) Take(n int64) *GroupByBuilder {
	b.spec.Take = &n
	return b
}

// Skip offsets the groups.
func (b *GroupByBuilder) Skip(n int64) *GroupByBuilder {
	b.spec.Skip = &n
	return b
}

// Exec computes the grouped aggregates.
func (b *GroupByBuilder) Exec(ctx context.Context) ([]GroupByRow, error) {
	if err := b.run(ctx, b.c.executor); err != nil {
		return nil, err
	}
	return b.result, nil
}

// Result returns the grouped rows after Exec or a batch run.
func (b *GroupByBuilder) Result() []GroupByRow { return b.result }

func (b *GroupByBuilder) run(ctx context.Context, exec dbexec.Executor) error {
	if b.err != nil {
		return b.err
	}
	q, columns, err := planner.BuildGroupBy(b.binding.Meta, b.spec)
	if err != nil {
		return err
	}
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	width := len(b.spec.By) + len(columns)
	var out []GroupByRow
	for rows.Next() {
		dests := make([]any, width)
		raw := make([]any, width)
		for i := range raw {
			dests[i] = &raw[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return err
		}
		row := make(GroupByRow, width)
		for i, field := range b.spec.By {
			row[field] = raw[i]
		}
		for i, col := range columns {
			row[col.ResultKey] = raw[len(b.spec.By)+i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	b.result = out
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case []byte:
		var out int64
		for _, c := range n {
			if c < '0' || c > '9' {
				return 0, false
			}
			out = out*10 + int64(c-'0')
		}
		return out, true
	default:
		return 0, false
	}
}
