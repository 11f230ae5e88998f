// Package include implements nested eager loading. The engine walks an
// include tree depth-first, resolving each relation through the injected
// registry and issuing one fetch per parent row, so per-parent ordering and
// pagination apply exactly as requested. Traversal is strictly sequential;
// related rows attach to their parents before any deeper level is fetched.
package include

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"relmap"
	"relmap/dbexec"
	"relmap/query"
	"relmap/registry"
	"relmap/schema"
)

// Engine fetches relation trees onto already-loaded records.
type Engine struct {
	reg *registry.Registry
	log *slog.Logger
}

func NewEngine(reg *registry.Registry, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{reg: reg, log: log}
}

// Apply loads every include in the tree onto records. The whole tree is
// validated against entity metadata before the first fetch, so a bad path
// deep in the tree fails the operation without touching the database.
func (e *Engine) Apply(ctx context.Context, exec dbexec.Executor, meta *schema.EntityMetadata, records []schema.Record, includes []query.RelationFilter) error {
	if len(includes) == 0 || len(records) == 0 {
		return nil
	}
	for i := range includes {
		if err := e.validate(meta, &includes[i]); err != nil {
			return err
		}
	}
	return e.apply(ctx, exec, meta, records, includes)
}

// validate checks one include subtree against the metadata graph. A missing
// top-level relation is a RelationNotFoundError; a nested entry naming a
// relation absent from its parent's target is an InvalidIncludePathError.
func (e *Engine) validate(meta *schema.EntityMetadata, rf *query.RelationFilter) error {
	desc, err := meta.Relation(rf.Relation)
	if err != nil {
		return err
	}
	target, err := e.reg.Metadata(desc.TargetEntity)
	if err != nil {
		return err
	}
	for i := range rf.Nested {
		nested := &rf.Nested[i]
		if _, err := target.Relation(nested.Relation); err != nil {
			return &relmap.InvalidIncludePathError{Relation: rf.Relation, Nested: nested.Relation}
		}
		if err := e.validate(target, nested); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) apply(ctx context.Context, exec dbexec.Executor, meta *schema.EntityMetadata, records []schema.Record, includes []query.RelationFilter) error {
	for i := range includes {
		if err := e.applyOne(ctx, exec, meta, records, &includes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyOne(ctx context.Context, exec dbexec.Executor, meta *schema.EntityMetadata, records []schema.Record, rf *query.RelationFilter) error {
	desc, err := meta.Relation(rf.Relation)
	if err != nil {
		return err
	}
	target, err := e.reg.Metadata(desc.TargetEntity)
	if err != nil {
		return err
	}
	fetcher, err := e.reg.Fetcher(desc.TargetEntity)
	if err != nil {
		return err
	}

	ctx, span := startIncludeSpan(ctx, "include.fetch",
		attribute.String("relmap.entity", meta.Name),
		attribute.String("relmap.relation", rf.Relation),
		attribute.Int("relmap.parent_rows", len(records)),
	)
	var children []schema.Record
	for _, rec := range records {
		fetched, err := e.fetchInto(ctx, exec, meta, desc, rec, rf, fetcher)
		if err != nil {
			finishIncludeSpan(span, err)
			return err
		}
		children = append(children, fetched...)
	}
	finishIncludeSpan(span, nil)

	e.log.DebugContext(ctx, "include fetched",
		"entity", meta.Name,
		"relation", rf.Relation,
		"parents", len(records),
		"rows", len(children),
	)

	if len(rf.Nested) > 0 && len(children) > 0 {
		return e.apply(ctx, exec, target, children, rf.Nested)
	}
	return nil
}

// fetchInto loads one relation for one parent record, storing the result
// (and the count when requested) on the record. It returns the fetched
// children so deeper levels can recurse over them.
func (e *Engine) fetchInto(ctx context.Context, exec dbexec.Executor, meta *schema.EntityMetadata, desc *schema.RelationDescriptor, rec schema.Record, rf *query.RelationFilter, fetcher registry.Fetcher) ([]schema.Record, error) {
	var fkColumn string
	var anchor string
	if desc.Kind == schema.BelongsTo {
		fkColumn = desc.TargetPKColumn
		anchor = desc.FKField
	} else {
		fkColumn = desc.FKColumn
		anchor = meta.PKField
	}

	k, ok := rec.KeyField(anchor)
	if !ok {
		if desc.Kind == schema.BelongsTo {
			// Nullable FK with no value: the slot stays unset, which is
			// distinct from a fetched-and-absent nil result.
			return nil, nil
		}
		return nil, relmap.Validationf("record of entity %q has no %q value to anchor relation %q", meta.Name, anchor, desc.Name)
	}

	if rf.IncludeCount {
		n, err := fetcher.CountByForeignKey(ctx, exec, fkColumn, &k, rf)
		if err != nil {
			return nil, err
		}
		rec.SetCount(desc.Name, n)
		// A count request with nothing nested needs no rows; the relation
		// slot stays unset.
		if rf.CountOnly || len(rf.Nested) == 0 {
			return nil, nil
		}
	}

	scoped := *rf
	if desc.Kind == schema.BelongsTo && scoped.Take == nil {
		one := int64(1)
		scoped.Take = &one
	}
	fetched, err := fetcher.FetchByForeignKey(ctx, exec, fkColumn, &k, &scoped)
	if err != nil {
		return nil, err
	}

	value := &schema.RelationValue{Kind: desc.Kind}
	if desc.Kind == schema.BelongsTo {
		if len(fetched) > 0 {
			value.One = fetched[0]
		}
	} else {
		value.Many = fetched
	}
	if err := rec.SetRelation(desc.Name, value); err != nil {
		return nil, err
	}
	return value.Records(), nil
}
