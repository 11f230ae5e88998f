// Package selection computes partial-projection field sets. Given the
// aliases a caller asked for, it adds the fields traversal needs (the
// primary key, plus the foreign-key field of every relation named as a
// nested include) so a projected row can still anchor deeper fetches.
package selection

import (
	"relmap"
	"relmap/query"
	"relmap/schema"
)

// RequiredFields returns the field set a projected fetch must select:
// the requested aliases, the primary key, and the FK field of every
// belongs-to relation present in includes. The result follows the entity's
// column declaration order so planned SQL is deterministic. Unknown aliases
// are a validation error.
func RequiredFields(meta *schema.EntityMetadata, selected []string, includes []query.RelationFilter) ([]string, error) {
	want := make(map[string]struct{}, len(selected)+2)
	for _, alias := range selected {
		if _, ok := meta.ColumnForField(alias); !ok {
			return nil, relmap.Validationf("unknown selection alias %q on entity %q", alias, meta.Name)
		}
		want[alias] = struct{}{}
	}
	want[meta.PKField] = struct{}{}

	for _, inc := range includes {
		desc, err := meta.Relation(inc.Relation)
		if err != nil {
			return nil, err
		}
		// Has-many traversal anchors on the primary key, which is
		// already included; belongs-to needs the FK field fetched.
		if desc.Kind == schema.BelongsTo {
			want[desc.FKField] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(want))
	for _, col := range meta.Columns {
		if _, ok := want[col.Field]; ok {
			ordered = append(ordered, col.Field)
		}
	}
	return ordered, nil
}

// FieldsForFilter resolves the fields a relation fetch should select for
// the given filter: nil (full row) when the filter carries no selection,
// otherwise the required projected set.
func FieldsForFilter(meta *schema.EntityMetadata, rf *query.RelationFilter) ([]string, error) {
	if rf.SelectAliases == nil {
		return nil, nil
	}
	return RequiredFields(meta, rf.SelectAliases, rf.Nested)
}
