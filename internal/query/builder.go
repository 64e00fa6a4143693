// Package query assembles single-statement SQL SELECT queries from
// structured parts.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingTable indicates Build was called without a table name.
	ErrMissingTable = errors.New("query: table is required")
	// ErrArgumentCount indicates a condition whose markers and arguments disagree.
	ErrArgumentCount = errors.New("query: placeholder and argument count mismatch")
)

// missingTable is rendered in place of an empty table name by BuildQuery.
const missingTable = "None"

// Join describes a single `JOIN <Table> ON <On>` clause.
type Join struct {
	Table string
	On    string
}

// Condition is a boolean SQL expression. Each `?` in Expr is bound to the
// argument at the same position in Args. Markers inside quoted literals or
// identifiers are left alone, and `??` renders a literal `?` for the jsonb
// key operators.
type Condition struct {
	Expr string
	Args []any
}

// Cond constructs a Condition.
func Cond(expr string, args ...any) Condition {
	return Condition{Expr: expr, Args: args}
}

// Query groups the structured parts of a SELECT statement.
type Query struct {
	Selects     []string
	Table       string
	Joins       []Join
	Constraints []Condition
}

// Statement is rendered SQL text plus its bind arguments in placeholder order.
type Statement struct {
	SQL  string
	Args []any
}

// Builder renders queries. The zero value is ready to use.
type Builder struct{}

// BuildQuery renders the selects, table, joins and constraints verbatim into
// a single statement:
//
//	SELECT <selects|*> FROM <table> [JOIN t ON c ...] [WHERE c1 AND c2 ];
//
// Values embedded in the constraints are not escaped. An empty table renders
// as "None". Use Build for anything carrying caller-supplied values.
func (Builder) BuildQuery(selects []string, table string, joins []Join, constraints []string) string {
	if table == "" {
		table = missingTable
	}
	return render(selects, table, joins, constraints)
}

// Build renders q with the same clause layout as BuildQuery, replacing the `?`
// markers of every constraint with numbered `$n` placeholders.
func (Builder) Build(q Query) (Statement, error) {
	if strings.TrimSpace(q.Table) == "" {
		return Statement{}, ErrMissingTable
	}
	var (
		where []string
		args  []any
	)
	for _, c := range q.Constraints {
		expr, n := rebind(c.Expr, len(args)+1)
		if n != len(c.Args) {
			return Statement{}, fmt.Errorf("%w: %q has %d placeholders, %d args", ErrArgumentCount, c.Expr, n, len(c.Args))
		}
		where = append(where, expr)
		args = append(args, c.Args...)
	}
	return Statement{SQL: render(q.Selects, q.Table, q.Joins, where), Args: args}, nil
}

func render(selects []string, table string, joins []Join, constraints []string) string {
	return selectClause(selects) + " " + fromClause(table, joins) + " " + whereClause(constraints) + ";"
}

func selectClause(selects []string) string {
	if len(selects) == 0 {
		return "SELECT *"
	}
	return "SELECT " + strings.Join(selects, ", ")
}

func fromClause(table string, joins []Join) string {
	if len(joins) == 0 {
		return "FROM " + table
	}
	parts := make([]string, 0, len(joins))
	for _, j := range joins {
		parts = append(parts, "JOIN "+j.Table+" ON "+j.On)
	}
	return "FROM " + table + " " + strings.Join(parts, " ")
}

// whereClause keeps a trailing space after the last condition; existing
// consumers compare rendered statements byte for byte.
func whereClause(constraints []string) string {
	if len(constraints) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(constraints, " AND ") + " "
}

// rebind replaces each `?` in expr with `$n`, numbering from start, and
// reports how many markers it replaced. Text inside single or double quotes
// is copied verbatim and `??` collapses to a literal `?`.
func rebind(expr string, start int) (string, int) {
	var b strings.Builder
	b.Grow(len(expr) + 4)
	n := 0
	var quote rune
	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			// a doubled quote inside a literal toggles out and straight back in
			if r == quote {
				quote = 0
			}
			b.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			b.WriteRune(r)
		case r == '?' && i+1 < len(runes) && runes[i+1] == '?':
			b.WriteRune('?')
			i++
		case r == '?':
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(start + n))
			n++
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), n
}
