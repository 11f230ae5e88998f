package planner

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"relmap"
	"relmap/query"
	"relmap/schema"
)

// AggregateColumn pairs one planned aggregate expression with the result
// key used to scan it. Keeping the two together keeps SELECT clauses and
// scan destinations in sync.
type AggregateColumn struct {
	Expr      string
	ResultKey string
	Func      query.AggFunc
	Field     string
}

// AggregateResultKey derives the scan key for one aggregate column.
func AggregateResultKey(fn query.AggFunc, field string) string {
	if fn == query.AggCount {
		return "_count"
	}
	return fmt.Sprintf("_%s_%s", strings.ToLower(fn.String()), field)
}

// AggregateColumns expands a selection into ordered aggregate columns.
func AggregateColumns(meta *schema.EntityMetadata, sel query.AggregateSelection) ([]AggregateColumn, error) {
	var out []AggregateColumn
	if sel.Count {
		out = append(out, AggregateColumn{Expr: "COUNT(*) AS `_count`", ResultKey: "_count", Func: query.AggCount})
	}
	groups := []struct {
		fn     query.AggFunc
		fields []string
	}{
		{query.AggAvg, sel.Avg},
		{query.AggSum, sel.Sum},
		{query.AggMin, sel.Min},
		{query.AggMax, sel.Max},
	}
	for _, g := range groups {
		for _, field := range g.fields {
			col, ok := meta.ColumnForField(field)
			if !ok {
				return nil, relmap.Validationf("unknown aggregate field %q on entity %q", field, meta.Name)
			}
			resultKey := AggregateResultKey(g.fn, field)
			out = append(out, AggregateColumn{
				Expr:      fmt.Sprintf("%s(%s) AS %s", g.fn, QuoteIdentifier(col.Name), QuoteIdentifier(resultKey)),
				ResultKey: resultKey,
				Func:      g.fn,
				Field:     field,
			})
		}
	}
	if len(out) == 0 {
		return nil, relmap.Validationf("aggregate on entity %q selects nothing", meta.Name)
	}
	return out, nil
}

// BuildAggregate plans an aggregate over the filtered dataset. Ordering and
// pagination scope the dataset before aggregation, so "sum of the 50 most
// recent rows" behaves as written.
func BuildAggregate(meta *schema.EntityMetadata, sel query.AggregateSelection, spec SelectSpec) (SQLQuery, []AggregateColumn, error) {
	columns, err := AggregateColumns(meta, sel)
	if err != nil {
		return SQLQuery{}, nil, err
	}

	base := sq.Select("*").From(QuoteIdentifier(meta.Table))
	base, err = applyScope(base, meta, spec)
	if err != nil {
		return SQLQuery{}, nil, err
	}
	base, err = applyOrder(base, meta, spec)
	if err != nil {
		return SQLQuery{}, nil, err
	}
	if spec.Take != nil {
		base = base.Limit(uint64(*spec.Take))
	}
	if spec.Skip != nil {
		base = base.Offset(uint64(*spec.Skip))
	}
	baseSQL, args, err := base.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, nil, err
	}

	exprs := make([]string, len(columns))
	for i, col := range columns {
		exprs[i] = col.Expr
	}
	sqlText := fmt.Sprintf("SELECT %s FROM (%s) AS `_agg`", strings.Join(exprs, ", "), baseSQL)
	return SQLQuery{SQL: sqlText, Args: args}, columns, nil
}

// GroupBySpec describes a grouped aggregate query.
type GroupBySpec struct {
	By                   []string // logical fields to group by
	Sel                  query.AggregateSelection
	Filters              []query.Filter
	Having               []query.Having
	OrderBy              []query.AggOrderTerm
	OrderByRelationCount []query.RelationCountOrder
	Take                 *int64
	Skip                 *int64
}

// BuildGroupBy plans a GROUP BY with aggregate selection, HAVING predicates
// over the aggregates, and aggregate ordering. The grouped fields are
// selected under their logical aliases ahead of the aggregate columns.
func BuildGroupBy(meta *schema.EntityMetadata, spec GroupBySpec) (SQLQuery, []AggregateColumn, error) {
	if len(spec.By) == 0 {
		return SQLQuery{}, nil, relmap.Validationf("group-by on entity %q has no grouping fields", meta.Name)
	}
	columns, err := AggregateColumns(meta, spec.Sel)
	if err != nil {
		return SQLQuery{}, nil, err
	}

	selects := make([]string, 0, len(spec.By)+len(columns))
	groups := make([]string, 0, len(spec.By))
	for _, field := range spec.By {
		col, ok := meta.ColumnForField(field)
		if !ok {
			return SQLQuery{}, nil, relmap.Validationf("unknown group-by field %q on entity %q", field, meta.Name)
		}
		selects = append(selects, QuoteIdentifier(col.Name)+" AS "+QuoteIdentifier(col.Field))
		groups = append(groups, QuoteIdentifier(col.Name))
	}
	for _, col := range columns {
		selects = append(selects, col.Expr)
	}

	builder := sq.Select(selects...).From(QuoteIdentifier(meta.Table)).GroupBy(groups...)
	cond, err := BuildWhere(meta, spec.Filters)
	if err != nil {
		return SQLQuery{}, nil, err
	}
	if cond != nil {
		builder = builder.Where(cond)
	}

	for _, h := range spec.Having {
		expr, err := aggregateExpr(meta, h.Func, h.Field)
		if err != nil {
			return SQLQuery{}, nil, err
		}
		op, err := comparisonOperator(h.Op)
		if err != nil {
			return SQLQuery{}, nil, err
		}
		builder = builder.Having(sq.Expr(expr+" "+op+" ?", h.Value))
	}

	for _, term := range spec.OrderBy {
		expr, err := aggregateExpr(meta, term.Func, term.Field)
		if err != nil {
			return SQLQuery{}, nil, err
		}
		builder = builder.OrderBy(expr + " " + term.Order.String())
	}
	for _, rc := range spec.OrderByRelationCount {
		clause, err := relationCountOrderClause(meta, rc)
		if err != nil {
			return SQLQuery{}, nil, err
		}
		builder = builder.OrderByClause(clause)
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
	return SQLQuery{SQL: sqlText, Args: args}, columns, nil
}

func aggregateExpr(meta *schema.EntityMetadata, fn query.AggFunc, field string) (string, error) {
	if fn == query.AggCount && field == "" {
		return "COUNT(*)", nil
	}
	col, ok := meta.ColumnForField(field)
	if !ok {
		return "", relmap.Validationf("unknown aggregate field %q on entity %q", field, meta.Name)
	}
	return fmt.Sprintf("%s(%s)", fn, QuoteIdentifier(col.Name)), nil
}

func comparisonOperator(op query.Op) (string, error) {
	switch op {
	case query.OpEquals:
		return "=", nil
	case query.OpNotEquals:
		return "<>", nil
	case query.OpGt:
		return ">", nil
	case query.OpLt:
		return "<", nil
	case query.OpGte:
		return ">=", nil
	case query.OpLte:
		return "<=", nil
	default:
		return "", relmap.Validationf("operation %s cannot be used in HAVING", op)
	}
}
