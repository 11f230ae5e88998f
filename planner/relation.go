package planner

import (
	sq "github.com/Masterminds/squirrel"

	"relmap"
	"relmap/key"
	"relmap/schema"
)

// BuildDetachHasMany plans the UPDATE that clears the foreign key on target
// rows currently attached to parent but absent from keep. Requires a
// nullable foreign key; detaching on a NOT NULL column would orphan rows
// into an invalid state.
func BuildDetachHasMany(desc *schema.RelationDescriptor, parent key.Key, keep []key.Key) (SQLQuery, error) {
	if !desc.FKNullable {
		return SQLQuery{}, relmap.Validationf("relation %q cannot be detached: foreign key %q is not nullable", desc.Name, desc.FKColumn)
	}
	builder := sq.Update(QuoteIdentifier(desc.TargetTable)).
		Set(QuoteIdentifier(desc.FKColumn), nil).
		Where(sq.Eq{QuoteIdentifier(desc.FKColumn): parent.Value()})
	if len(keep) > 0 {
		builder = builder.Where(sq.NotEq{QuoteIdentifier(desc.TargetPKColumn): keyValues(keep)})
	}
	sqlText, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, nil
}

// BuildAttachHasMany plans the UPDATE that points the given target rows at
// parent.
func BuildAttachHasMany(desc *schema.RelationDescriptor, parent key.Key, ids []key.Key) (SQLQuery, error) {
	if len(ids) == 0 {
		return SQLQuery{}, relmap.Validationf("relation %q attach has no target keys", desc.Name)
	}
	sqlText, args, err := sq.Update(QuoteIdentifier(desc.TargetTable)).
		Set(QuoteIdentifier(desc.FKColumn), parent.Value()).
		Where(sq.Eq{QuoteIdentifier(desc.TargetPKColumn): keyValues(ids)}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: sqlText, Args: args}, nil
}

func keyValues(keys []key.Key) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k.Value()
	}
	return out
}
