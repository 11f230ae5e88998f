package planner

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"relmap"
	"relmap/key"
	"relmap/query"
	"relmap/schema"
)

// SelectSpec describes one planned SELECT over an entity table. Fields and
// Aliases are parallel: Fields holds logical field names resolved to
// columns, Aliases the output names used when scanning. A nil Fields list
// selects every column.
type SelectSpec struct {
	Fields               []string
	Filters              []query.Filter
	OrderBy              []query.OrderTerm
	OrderByRelationCount []query.RelationCountOrder
	Take                 *int64
	Skip                 *int64
	Cursor               *key.Key
	Distinct             bool
	// ForeignKey scopes the select to rows whose FKColumn equals the key.
	FKColumn string
	FKValue  *key.Key
}

// BuildSelect plans a row fetch for the entity.
func BuildSelect(meta *schema.EntityMetadata, spec SelectSpec) (SQLQuery, []string, error) {
	columns, aliases, err := selectColumns(meta, spec.Fields)
	if err != nil {
		return SQLQuery{}, nil, err
	}

	builder := sq.Select(columns...).From(QuoteIdentifier(meta.Table))
	if spec.Distinct {
		builder = builder.Distinct()
	}

	builder, err = applyScope(builder, meta, spec)
	if err != nil {
		return SQLQuery{}, nil, err
	}

	builder, err = applyOrder(builder, meta, spec)
	if err != nil {
		return SQLQuery{}, nil, err
	}

	if spec.Take != nil {
		builder = builder.Limit(uint64(*spec.Take))
	}
	if spec.Skip != nil {
		builder = builder.Offset(uint64(*spec.Skip))
	}

	sqlText, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, nil, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, aliases, nil
}

// BuildCount plans a COUNT(*) over the same predicate scope, ignoring
// pagination, ordering, and projection.
func BuildCount(meta *schema.EntityMetadata, spec SelectSpec) (SQLQuery, error) {
	builder := sq.Select("COUNT(*)").From(QuoteIdentifier(meta.Table))
	spec.Cursor = nil
	builder, err := applyScope(builder, meta, spec)
	if err != nil {
		return SQLQuery{}, err
	}
	sqlText, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, nil
}

func applyScope(builder sq.SelectBuilder, meta *schema.EntityMetadata, spec SelectSpec) (sq.SelectBuilder, error) {
	if spec.FKValue != nil {
		if spec.FKColumn == "" {
			return builder, relmap.Validationf("foreign key scope requires a column on entity %q", meta.Name)
		}
		builder = builder.Where(sq.Eq{QuoteIdentifier(spec.FKColumn): spec.FKValue.Value()})
	}
	cond, err := BuildWhere(meta, spec.Filters)
	if err != nil {
		return builder, err
	}
	if cond != nil {
		builder = builder.Where(cond)
	}
	if spec.Cursor != nil {
		// Seek from the cursor row inclusive, relative to the primary
		// ordering direction (ascending when unspecified).
		op := ">="
		if len(spec.OrderBy) > 0 && spec.OrderBy[0].Order == query.Desc {
			op = "<="
		}
		builder = builder.Where(sq.Expr(
			fmt.Sprintf("%s %s ?", QuoteIdentifier(meta.PKColumn), op),
			spec.Cursor.Value(),
		))
	}
	return builder, nil
}

func applyOrder(builder sq.SelectBuilder, meta *schema.EntityMetadata, spec SelectSpec) (sq.SelectBuilder, error) {
	for _, term := range spec.OrderBy {
		col, ok := meta.ColumnForField(term.Field)
		if !ok {
			return builder, relmap.Validationf("unknown order-by field %q on entity %q", term.Field, meta.Name)
		}
		builder = builder.OrderBy(QuoteIdentifier(col.Name) + " " + term.Order.String())
	}
	for _, rc := range spec.OrderByRelationCount {
		clause, err := relationCountOrderClause(meta, rc)
		if err != nil {
			return builder, err
		}
		builder = builder.OrderByClause(clause)
	}
	return builder, nil
}

// relationCountOrderClause plans one correlated-subquery ordering term over
// the size of a has-many relation.
func relationCountOrderClause(meta *schema.EntityMetadata, rc query.RelationCountOrder) (string, error) {
	desc, err := meta.Relation(rc.Relation)
	if err != nil {
		return "", err
	}
	if desc.Kind != schema.HasMany {
		return "", relmap.Validationf("relation-count ordering requires a has-many relation, %q is %s", rc.Relation, desc.Kind)
	}
	return fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s.%s = %s.%s) %s",
		QuoteIdentifier(desc.TargetTable),
		QuoteIdentifier(desc.TargetTable), QuoteIdentifier(desc.FKColumn),
		QuoteIdentifier(meta.Table), QuoteIdentifier(desc.CurrentPKColumn),
		rc.Order.String(),
	), nil
}

func selectColumns(meta *schema.EntityMetadata, fields []string) ([]string, []string, error) {
	if len(fields) == 0 {
		columns := make([]string, len(meta.Columns))
		aliases := make([]string, len(meta.Columns))
		for i, col := range meta.Columns {
			columns[i] = QuoteIdentifier(col.Name)
			aliases[i] = col.Field
		}
		return columns, aliases, nil
	}
	columns := make([]string, len(fields))
	aliases := make([]string, len(fields))
	for i, field := range fields {
		col, ok := meta.ColumnForField(field)
		if !ok {
			return nil, nil, relmap.Validationf("unknown field %q on entity %q", field, meta.Name)
		}
		columns[i] = QuoteIdentifier(col.Name) + " AS " + QuoteIdentifier(col.Field)
		aliases[i] = col.Field
	}
	return columns, aliases, nil
}

// SpecFromRelationFilter converts a RelationFilter into a SelectSpec scoped
// by the given foreign key. Fields come through resolved by the selection
// engine (nil means a full-row fetch).
func SpecFromRelationFilter(rf *query.RelationFilter, fields []string, fkColumn string, fk *key.Key) SelectSpec {
	return SelectSpec{
		Fields:   fields,
		Filters:  rf.Filters,
		OrderBy:  rf.OrderBy,
		Take:     rf.Take,
		Skip:     rf.Skip,
		Cursor:   rf.Cursor,
		Distinct: rf.Distinct,
		FKColumn: fkColumn,
		FKValue:  fk,
	}
}
