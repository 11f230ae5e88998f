package schema

import "relmap/key"

// Record is the runtime view of one entity row during traversal and writes.
// It is implemented twice per entity by generated code: once for the full
// model and once for the partial projection, whose unfilled fields stay
// unset rather than null. Records are never shared across concurrent
// mutators; the traversal engine owns a record for the duration of an
// operation.
type Record interface {
	// Meta returns the entity's descriptor table.
	Meta() *EntityMetadata

	// Fill populates the fields named by aliases from the scanned row
	// values, aligned by index. Aliases absent from the entity are an
	// error; fields not named stay unset.
	Fill(aliases []string, values []any) error

	// KeyField extracts a key-typed logical field (primary or foreign
	// key). ok is false when the field is unset or NULL.
	KeyField(field string) (key.Key, bool)

	// SetRelation stores a fetched relation result into the named slot.
	SetRelation(name string, v *RelationValue) error

	// SetCount stores an include-count result for the named relation.
	SetCount(relation string, n int64)
}

// RelationValue is the closed result union for a relation fetch: a single
// optional record for belongs-to, a list for has-many. Using a tagged
// struct instead of type-erased values keeps traversal free of runtime
// downcasts.
type RelationValue struct {
	Kind RelationKind
	One  Record   // belongs-to result; nil means absent
	Many []Record // has-many results
}

// Records returns the fetched records regardless of kind, for uniform
// recursion by the traversal engine.
func (v *RelationValue) Records() []Record {
	if v == nil {
		return nil
	}
	if v.Kind == HasMany {
		return v.Many
	}
	if v.One != nil {
		return []Record{v.One}
	}
	return nil
}

// Binding connects an entity's metadata with constructors for its two
// record shapes. One Binding per entity is registered at startup; the
// generator emits them.
type Binding struct {
	Meta *EntityMetadata
	// NewRecord builds an empty full-model record.
	NewRecord func() Record
	// NewPartial builds an empty partial-projection record.
	NewPartial func() Record
}
