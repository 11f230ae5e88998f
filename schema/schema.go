// Package schema holds the runtime descriptor tables the mapper operates
// on: per-entity column and relation metadata, plus the Record interface
// implemented by full models and partial projections. Descriptor tables are
// normally emitted by the code-generation step; the runtime treats them as
// immutable data.
package schema

import (
	"strings"

	"github.com/jinzhu/inflection"

	"relmap"
)

// RelationKind discriminates the two relation shapes.
type RelationKind int

const (
	// BelongsTo: the current entity holds the foreign key referencing one
	// target row.
	BelongsTo RelationKind = iota
	// HasMany: the target entity holds the foreign key referencing the
	// current row.
	HasMany
)

func (k RelationKind) String() string {
	if k == HasMany {
		return "has_many"
	}
	return "belongs_to"
}

// Column describes one scalar column of an entity table.
type Column struct {
	Name          string // physical column name
	Field         string // logical field name (alias used in selections)
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	JSON          bool
}

// RelationDescriptor describes one relation of an entity. Exactly one
// descriptor exists per relation name per entity.
type RelationDescriptor struct {
	Name         string
	Kind         RelationKind
	TargetEntity string
	TargetTable  string
	// FKColumn is the physical column holding the foreign key: on the
	// current table for belongs-to, on the target table for has-many.
	FKColumn string
	// FKField is the logical field name carrying the foreign key on the
	// current entity (belongs-to only).
	FKField         string
	CurrentPKColumn string
	TargetPKColumn  string
	FKNullable      bool
}

// EntityMetadata is the static descriptor table for one entity type.
type EntityMetadata struct {
	Name      string
	Table     string
	PKColumn  string
	PKField   string
	PKAuto    bool
	Columns   []Column
	Relations []RelationDescriptor
}

// Relation looks up a relation descriptor by name. The list is small and
// static, so a linear scan is fine.
func (m *EntityMetadata) Relation(name string) (*RelationDescriptor, error) {
	for i := range m.Relations {
		if m.Relations[i].Name == name {
			return &m.Relations[i], nil
		}
	}
	return nil, &relmap.RelationNotFoundError{Entity: m.Name, Relation: name}
}

// ColumnForField maps a logical field name to its column.
func (m *EntityMetadata) ColumnForField(field string) (*Column, bool) {
	for i := range m.Columns {
		if m.Columns[i].Field == field {
			return &m.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns all physical column names in declaration order.
func (m *EntityMetadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Name
	}
	return names
}

// FieldNames returns all logical field names in declaration order.
func (m *EntityMetadata) FieldNames() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Field
	}
	return names
}

// DefaultTableName derives a table name from an entity name the same way
// the generator does: snake_case, pluralized.
func DefaultTableName(entity string) string {
	return inflection.Plural(toSnake(entity))
}

// NormalizeEntityName canonicalizes an entity name for registry lookup so
// that "BlogPost", "blog_post", and "blogPost" all resolve identically.
func NormalizeEntityName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return toSnake(name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
