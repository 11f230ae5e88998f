// Package planner compiles the query-shape value objects (filters, relation
// filters, aggregate selections) into executable SQL statements. It is the
// only place SQL text is produced; builders and fetchers hand the result to
// the dbexec layer unchanged.
package planner

import "strings"

// SQLQuery is a planned statement: SQL text plus positional arguments.
type SQLQuery struct {
	SQL  string
	Args []any
}

// QuoteIdentifier quotes a table or column name with backticks, escaping
// embedded backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
