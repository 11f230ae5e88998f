package planner

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"relmap"
	"relmap/query"
	"relmap/schema"
)

// BuildWhere compiles a list of filters into a squirrel condition over the
// entity's table. Filters combine with AND. An empty list yields nil.
func BuildWhere(meta *schema.EntityMetadata, filters []query.Filter) (sq.Sqlizer, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	conds := make(sq.And, 0, len(filters))
	for _, f := range filters {
		cond, err := buildCondition(meta, f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return conds, nil
}

func buildCondition(meta *schema.EntityMetadata, f query.Filter) (sq.Sqlizer, error) {
	col, ok := meta.ColumnForField(f.Field)
	if !ok {
		return nil, relmap.Validationf("unknown field %q on entity %q", f.Field, meta.Name)
	}
	quoted := QuoteIdentifier(col.Name)

	switch f.Op {
	case query.OpEquals:
		return sq.Eq{quoted: f.Value}, nil
	case query.OpNotEquals:
		return sq.NotEq{quoted: f.Value}, nil
	case query.OpGt:
		return sq.Gt{quoted: f.Value}, nil
	case query.OpLt:
		return sq.Lt{quoted: f.Value}, nil
	case query.OpGte:
		return sq.GtOrEq{quoted: f.Value}, nil
	case query.OpLte:
		return sq.LtOrEq{quoted: f.Value}, nil
	case query.OpIn:
		return sq.Eq{quoted: f.Values}, nil
	case query.OpNotIn:
		return sq.NotEq{quoted: f.Values}, nil
	case query.OpContains:
		return sq.Like{quoted: "%" + stringOperand(f.Value) + "%"}, nil
	case query.OpStartsWith:
		return sq.Like{quoted: stringOperand(f.Value) + "%"}, nil
	case query.OpEndsWith:
		return sq.Like{quoted: "%" + stringOperand(f.Value)}, nil
	case query.OpIsNull:
		return sq.Eq{quoted: nil}, nil
	case query.OpIsNotNull:
		return sq.NotEq{quoted: nil}, nil
	case query.OpJSONEquals:
		return sq.Expr(jsonExtract(quoted, f.Path)+" = ?", f.Value), nil
	case query.OpJSONStringContains:
		return sq.Expr(jsonUnquoted(quoted, f.Path)+" LIKE ?", "%"+stringOperand(f.Value)+"%"), nil
	case query.OpJSONStringStartsWith:
		return sq.Expr(jsonUnquoted(quoted, f.Path)+" LIKE ?", stringOperand(f.Value)+"%"), nil
	case query.OpJSONStringEndsWith:
		return sq.Expr(jsonUnquoted(quoted, f.Path)+" LIKE ?", "%"+stringOperand(f.Value)), nil
	case query.OpJSONArrayContains:
		return sq.Expr(fmt.Sprintf("JSON_CONTAINS(%s, ?, %s)", quoted, jsonPathArg(f.Path)), f.Value), nil
	case query.OpJSONObjectContains:
		path := append(append([]string{}, f.Path...), stringOperand(f.Value))
		return sq.Expr(fmt.Sprintf("JSON_CONTAINS_PATH(%s, 'one', %s)", quoted, jsonPathArg(path))), nil
	default:
		return nil, relmap.Validationf("unsupported filter operation %s on field %q", f.Op, f.Field)
	}
}

func stringOperand(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func jsonPath(path []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, p := range path {
		b.WriteString(".")
		b.WriteString(p)
	}
	return b.String()
}

func jsonPathArg(path []string) string {
	return "'" + strings.ReplaceAll(jsonPath(path), "'", "''") + "'"
}

func jsonExtract(col string, path []string) string {
	return fmt.Sprintf("JSON_EXTRACT(%s, %s)", col, jsonPathArg(path))
}

func jsonUnquoted(col string, path []string) string {
	return fmt.Sprintf("JSON_UNQUOTE(%s)", jsonExtract(col, path))
}
