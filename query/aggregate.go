package query

import "fmt"

// AggFunc enumerates the aggregate functions available to Aggregate and
// GroupBy operations.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggAvg
	AggSum
	AggMin
	AggMax
)

func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggAvg:
		return "AVG"
	case AggSum:
		return "SUM"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return fmt.Sprintf("AggFunc(%d)", int(f))
	}
}

// AggregateSelection names which aggregates to compute. Column lists hold
// logical field names.
type AggregateSelection struct {
	Count bool
	Avg   []string
	Sum   []string
	Min   []string
	Max   []string
}

// Empty reports whether no aggregate was requested.
func (s AggregateSelection) Empty() bool {
	return !s.Count && len(s.Avg) == 0 && len(s.Sum) == 0 && len(s.Min) == 0 && len(s.Max) == 0
}

// Having is a predicate over a computed aggregate, applied after grouping.
type Having struct {
	Func  AggFunc
	Field string // logical field; empty for COUNT(*)
	Op    Op     // comparison ops only
	Value any
}

// AggOrderTerm orders grouped results by an aggregate expression.
type AggOrderTerm struct {
	Func  AggFunc
	Field string // logical field; empty for COUNT(*)
	Order SortOrder
}

// RelationCountOrder orders parent rows by the number of related rows in the
// named has-many relation, compiled as a correlated subquery.
type RelationCountOrder struct {
	Relation string
	Order    SortOrder
}
