package planner

import (
	"sort"

	sq "github.com/Masterminds/squirrel"

	"relmap"
	"relmap/query"
	"relmap/schema"
)

// BuildInsert plans a single-row insert from a column→value map. Columns
// are emitted in sorted order so planned SQL is deterministic.
func BuildInsert(meta *schema.EntityMetadata, values map[string]any) (SQLQuery, error) {
	columns := sortedColumns(values)
	if len(columns) == 0 {
		return SQLQuery{SQL: "INSERT INTO " + QuoteIdentifier(meta.Table) + " () VALUES ()"}, nil
	}
	quoted := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col)
		args[i] = values[col]
	}
	sqlText, sqlArgs, err := sq.Insert(QuoteIdentifier(meta.Table)).
		Columns(quoted...).
		Values(args...).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: sqlArgs}, nil
}

// BuildUpdate plans an update of the columns in set, scoped by filters.
// An empty set is a validation error; an empty filter list updates every
// row (the caller decides whether that is intended).
func BuildUpdate(meta *schema.EntityMetadata, set map[string]any, filters []query.Filter) (SQLQuery, error) {
	if len(set) == 0 {
		return SQLQuery{}, relmap.Validationf("update on entity %q has an empty set", meta.Name)
	}
	builder := sq.Update(QuoteIdentifier(meta.Table))
	for _, col := range sortedColumns(set) {
		builder = builder.Set(QuoteIdentifier(col), set[col])
	}
	cond, err := BuildWhere(meta, filters)
	if err != nil {
		return SQLQuery{}, err
	}
	if cond != nil {
		builder = builder.Where(cond)
	}
	sqlText, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, nil
}

// BuildDelete plans a condition-scoped delete.
func BuildDelete(meta *schema.EntityMetadata, filters []query.Filter) (SQLQuery, error) {
	builder := sq.Delete(QuoteIdentifier(meta.Table))
	cond, err := BuildWhere(meta, filters)
	if err != nil {
		return SQLQuery{}, err
	}
	if cond != nil {
		builder = builder.Where(cond)
	}
	sqlText, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, nil
}

// BuildInsertMany plans a multi-row insert. Every row must supply the same
// column set; the first row defines it. skipDuplicates emits INSERT IGNORE
// so unique-key collisions drop silently instead of failing the statement.
func BuildInsertMany(meta *schema.EntityMetadata, rows []map[string]any, skipDuplicates bool) (SQLQuery, error) {
	if len(rows) == 0 {
		return SQLQuery{}, relmap.Validationf("insert-many on entity %q has no rows", meta.Name)
	}
	columns := sortedColumns(rows[0])
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col)
	}
	builder := sq.Insert(QuoteIdentifier(meta.Table)).Columns(quoted...)
	if skipDuplicates {
		builder = builder.Options("IGNORE")
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return SQLQuery{}, relmap.Validationf("insert-many rows on entity %q have mismatched columns", meta.Name)
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			v, ok := row[col]
			if !ok {
				return SQLQuery{}, relmap.Validationf("insert-many row on entity %q is missing column %q", meta.Name, col)
			}
			args[i] = v
		}
		builder = builder.Values(args...)
	}
	sqlText, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, nil
}

func sortedColumns(values map[string]any) []string {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
