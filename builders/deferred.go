package builders

import (
	"context"
	"strings"

	"relmap"
	"relmap/dbexec"
	"relmap/key"
	"relmap/planner"
	"relmap/query"
	"relmap/registry"
	"relmap/schema"
)

// DeferredLookup is a pending foreign-key resolution queued by a relation
// connect whose condition is not a direct primary-key match. It carries only
// data; the dispatcher below interprets it, so lookups can be inspected,
// logged, and replayed in batches.
type DeferredLookup struct {
	// TargetEntity is the entity whose primary key is being looked up.
	TargetEntity string
	// Condition is the unique predicate identifying the target row.
	Condition query.Filter
	// AssignColumn is the column on the write under construction that
	// receives the resolved key.
	AssignColumn string
}

// resolveDeferred runs each lookup in order and writes the resolved keys
// into values. The first miss aborts with a NotFoundForConditionError; the
// caller is expected to abandon the whole write.
func (c *Client) resolveDeferred(ctx context.Context, exec dbexec.Executor, lookups []DeferredLookup, values map[string]any) error {
	for _, lookup := range lookups {
		meta, err := c.reg.Metadata(lookup.TargetEntity)
		if err != nil {
			return err
		}
		k, err := c.lookupKey(ctx, exec, meta, []query.Filter{lookup.Condition})
		if err != nil {
			return err
		}
		values[lookup.AssignColumn] = k.Value()
	}
	return nil
}

// lookupKey fetches the primary key of the single row matching filters.
func (c *Client) lookupKey(ctx context.Context, exec dbexec.Executor, meta *schema.EntityMetadata, filters []query.Filter) (key.Key, error) {
	one := int64(1)
	q, _, err := planner.BuildSelect(meta, planner.SelectSpec{
		Fields:  []string{meta.PKField},
		Filters: filters,
		Take:    &one,
	})
	if err != nil {
		return key.Key{}, err
	}
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return key.Key{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return key.Key{}, err
		}
		return key.Key{}, &relmap.NotFoundForConditionError{Entity: meta.Name, Condition: condString(filters)}
	}
	var raw any
	if err := rows.Scan(&raw); err != nil {
		return key.Key{}, err
	}
	k, ok := key.FromValue(raw)
	if !ok {
		return key.Key{}, &relmap.TypeMismatchError{Field: meta.PKField, Expected: "key", Value: raw}
	}
	return k, rows.Err()
}

// fetchByKey loads one full record by primary key, or nil when absent.
func (c *Client) fetchByKey(ctx context.Context, exec dbexec.Executor, b *schema.Binding, k key.Key) (schema.Record, error) {
	one := int64(1)
	q, aliases, err := planner.BuildSelect(b.Meta, planner.SelectSpec{
		Filters: []query.Filter{query.Equals(b.Meta.PKField, k.Value())},
		Take:    &one,
	})
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records, err := registry.ScanRecords(rows, aliases, b.NewRecord)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// condString renders a filter list for NotFoundForCondition messages.
func condString(filters []query.Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " AND ")
}
