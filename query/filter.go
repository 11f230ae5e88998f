// Package query defines the entity-agnostic value objects that describe
// query shapes: field predicates, ordering, pagination, cursors, nested
// includes, and aggregate selections. The generated per-entity enums compile
// down to these types; the planner package turns them into SQL.
package query

import (
	"fmt"
	"strings"

	"relmap/key"
)

// Op enumerates the predicate operations a Filter can express.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpGt
	OpLt
	OpGte
	OpLte
	OpIn
	OpNotIn
	OpContains
	OpStartsWith
	OpEndsWith
	OpIsNull
	OpIsNotNull
	// JSON operations address a path inside a JSON column.
	OpJSONEquals
	OpJSONStringContains
	OpJSONStringStartsWith
	OpJSONStringEndsWith
	OpJSONArrayContains
	OpJSONObjectContains
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "Equals"
	case OpNotEquals:
		return "NotEquals"
	case OpGt:
		return "Gt"
	case OpLt:
		return "Lt"
	case OpGte:
		return "Gte"
	case OpLte:
		return "Lte"
	case OpIn:
		return "In"
	case OpNotIn:
		return "NotIn"
	case OpContains:
		return "Contains"
	case OpStartsWith:
		return "StartsWith"
	case OpEndsWith:
		return "EndsWith"
	case OpIsNull:
		return "IsNull"
	case OpIsNotNull:
		return "IsNotNull"
	case OpJSONEquals:
		return "JsonEquals"
	case OpJSONStringContains:
		return "JsonStringContains"
	case OpJSONStringStartsWith:
		return "JsonStringStartsWith"
	case OpJSONStringEndsWith:
		return "JsonStringEndsWith"
	case OpJSONArrayContains:
		return "JsonArrayContains"
	case OpJSONObjectContains:
		return "JsonObjectContains"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Filter is a single predicate over a logical field. Value carries the
// operand for unary operations, Values the operand list for In/NotIn, and
// Path the JSON path for JSON operations.
type Filter struct {
	Field  string
	Op     Op
	Value  any
	Values []any
	Path   []string
}

// String renders the filter for error messages and logs.
func (f Filter) String() string {
	switch f.Op {
	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s(%s)", f.Op, f.Field)
	case OpIn, OpNotIn:
		return fmt.Sprintf("%s(%s, %v)", f.Op, f.Field, f.Values)
	default:
		if len(f.Path) > 0 {
			return fmt.Sprintf("%s(%s.%s, %v)", f.Op, f.Field, strings.Join(f.Path, "."), f.Value)
		}
		return fmt.Sprintf("%s(%s, %v)", f.Op, f.Field, f.Value)
	}
}

// Equals is shorthand for the most common predicate.
func Equals(field string, value any) Filter {
	return Filter{Field: field, Op: OpEquals, Value: value}
}

// SortOrder is the direction of an order-by term.
type SortOrder int

const (
	Asc SortOrder = iota
	Desc
)

func (s SortOrder) String() string {
	if s == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderTerm orders results by a logical field.
type OrderTerm struct {
	Field string
	Order SortOrder
}

// RelationFilter describes one eager-load request: which relation to fetch,
// how to filter/order/paginate it, which scalar fields to project
// (SelectAliases nil means the full row), and which deeper relations to
// fetch from each result. The tree mirrors the traversal the caller wants.
//
// Nested entries may only name relations that exist on the target entity of
// this relation; the traversal engine validates this before fetching.
type RelationFilter struct {
	Relation      string
	Filters       []Filter
	SelectAliases []string
	Nested        []RelationFilter
	Take          *int64
	Skip          *int64
	OrderBy       []OrderTerm
	Cursor        *key.Key
	// IncludeCount records the related-row count on the parent. Without
	// nested entries it replaces the row fetch; rows are fetched alongside
	// the count only when the tree continues below this relation.
	IncludeCount bool
	// CountOnly forces the count-only path even when nested entries exist;
	// it implies IncludeCount.
	CountOnly bool
	Distinct  bool
}

// Include starts a RelationFilter builder for the named relation.
func Include(relation string) *IncludeBuilder {
	return &IncludeBuilder{rf: RelationFilter{Relation: relation}}
}

// IncludeBuilder accumulates RelationFilter state fluently. Generated
// per-entity include helpers delegate to it.
type IncludeBuilder struct {
	rf RelationFilter
}

// Where appends predicates to the relation fetch.
func (b *IncludeBuilder) Where(filters ...Filter) *IncludeBuilder {
	b.rf.Filters = append(b.rf.Filters, filters...)
	return b
}

// Select restricts the fetched fields to the given aliases. Primary and
// foreign keys needed for traversal are added back by the selection engine.
func (b *IncludeBuilder) Select(aliases ...string) *IncludeBuilder {
	b.rf.SelectAliases = append([]string{}, aliases...)
	return b
}

// With nests a deeper include on the target entity.
func (b *IncludeBuilder) With(nested RelationFilter) *IncludeBuilder {
	b.rf.Nested = append(b.rf.Nested, nested)
	return b
}

// Take limits the number of fetched rows.
func (b *IncludeBuilder) Take(n int64) *IncludeBuilder {
	b.rf.Take = &n
	return b
}

// Skip offsets the fetched rows.
func (b *IncludeBuilder) Skip(n int64) *IncludeBuilder {
	b.rf.Skip = &n
	return b
}

// OrderBy appends an ordering term.
func (b *IncludeBuilder) OrderBy(field string, order SortOrder) *IncludeBuilder {
	b.rf.OrderBy = append(b.rf.OrderBy, OrderTerm{Field: field, Order: order})
	return b
}

// Cursor positions the fetch at the row whose primary key equals k,
// relative to the declared ordering.
func (b *IncludeBuilder) Cursor(k key.Key) *IncludeBuilder {
	b.rf.Cursor = &k
	return b
}

// WithCount requests the related-row count. Rows are still fetched when the
// include nests deeper relations; otherwise only the count is recorded.
func (b *IncludeBuilder) WithCount() *IncludeBuilder {
	b.rf.IncludeCount = true
	return b
}

// CountOnly fetches the related-row count without the rows.
func (b *IncludeBuilder) CountOnly() *IncludeBuilder {
	b.rf.IncludeCount = true
	b.rf.CountOnly = true
	return b
}

// Distinct deduplicates fetched rows.
func (b *IncludeBuilder) Distinct() *IncludeBuilder {
	b.rf.Distinct = true
	return b
}

// Build finalizes the filter.
func (b *IncludeBuilder) Build() RelationFilter {
	return b.rf
}
