package registry

import (
	"context"

	"relmap"
	"relmap/dbexec"
	"relmap/key"
	"relmap/planner"
	"relmap/query"
	"relmap/schema"
	"relmap/selection"
)

// Fetcher loads related rows for one target entity. The traversal engine
// resolves a Fetcher per relation target and drives it with the foreign-key
// scope the relation descriptor dictates; fetchers never interpret relation
// semantics themselves.
type Fetcher interface {
	// FetchByForeignKey returns the rows whose fkColumn equals fk,
	// shaped by the filter (predicates, ordering, pagination, selection).
	// A filter carrying a selection yields partial records. A nil fk
	// short-circuits to an empty result without touching the database.
	FetchByForeignKey(ctx context.Context, exec dbexec.Executor, fkColumn string, fk *key.Key, rf *query.RelationFilter) ([]schema.Record, error)

	// CountByForeignKey counts rows under the same predicate scope,
	// ignoring pagination and selection. A nil fk counts as zero without
	// querying.
	CountByForeignKey(ctx context.Context, exec dbexec.Executor, fkColumn string, fk *key.Key, rf *query.RelationFilter) (int64, error)
}

// sqlFetcher is the generic SQL-backed Fetcher bound to one entity binding.
// Every registered entity gets one; there is no per-entity fetch code.
type sqlFetcher struct {
	binding *schema.Binding
}

func (f *sqlFetcher) FetchByForeignKey(ctx context.Context, exec dbexec.Executor, fkColumn string, fk *key.Key, rf *query.RelationFilter) ([]schema.Record, error) {
	if fk == nil {
		return nil, nil
	}
	meta := f.binding.Meta
	fields, err := selection.FieldsForFilter(meta, rf)
	if err != nil {
		return nil, err
	}

	newRecord := f.binding.NewRecord
	if rf.SelectAliases != nil {
		if f.binding.NewPartial == nil {
			return nil, relmap.Validationf("entity %q does not support partial selection", meta.Name)
		}
		newRecord = f.binding.NewPartial
	}

	spec := planner.SpecFromRelationFilter(rf, fields, fkColumn, fk)
	q, aliases, err := planner.BuildSelect(meta, spec)
	if err != nil {
		return nil, err
	}

	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanRecords(rows, aliases, newRecord)
}

func (f *sqlFetcher) CountByForeignKey(ctx context.Context, exec dbexec.Executor, fkColumn string, fk *key.Key, rf *query.RelationFilter) (int64, error) {
	if fk == nil {
		return 0, nil
	}
	spec := planner.SpecFromRelationFilter(rf, nil, fkColumn, fk)
	q, err := planner.BuildCount(f.binding.Meta, spec)
	if err != nil {
		return 0, err
	}
	return ScanCount(ctx, exec, q)
}

// ScanRecords drains rows into records built by newRecord, filling each
// from the planned aliases. The caller owns closing rows.
func ScanRecords(rows dbexec.Rows, aliases []string, newRecord func() schema.Record) ([]schema.Record, error) {
	var out []schema.Record
	for rows.Next() {
		values := make([]any, len(aliases))
		dests := make([]any, len(aliases))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		rec := newRecord()
		if err := rec.Fill(aliases, values); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ScanCount runs a planned single-value count query.
func ScanCount(ctx context.Context, exec dbexec.Executor, q planner.SQLQuery) (int64, error) {
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}
