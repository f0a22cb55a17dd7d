package query

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// Dialect selects placeholder and date-function syntax.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Bucket returns an expression truncating column to the interval, as text
// in YYYY-MM-DD form.
func (d Dialect) Bucket(column string, interval domain.Interval) string {
	switch d {
	case Postgres:
		switch interval {
		case domain.IntervalDay:
			return fmt.Sprintf("CAST(%s AS TEXT)", column)
		case domain.IntervalMonth:
			return fmt.Sprintf("CAST(CAST(DATE_TRUNC('month', %s) AS DATE) AS TEXT)", column)
		default:
			return fmt.Sprintf("CAST(CAST(DATE_TRUNC('year', %s) AS DATE) AS TEXT)", column)
		}
	default:
		switch interval {
		case domain.IntervalDay:
			return column
		case domain.IntervalMonth:
			return fmt.Sprintf("strftime('%%Y-%%m-01', %s)", column)
		default:
			return fmt.Sprintf("strftime('%%Y-01-01', %s)", column)
		}
	}
}

// WhereBuilder renders a predicate into a parameterized WHERE clause.
//
//	wb := query.NewWhereBuilder(query.Postgres)
//	clause, args := wb.Build(query.RegionFilter(q))
//	// LOWER(city) = ANY($1) OR zipcode = ANY($2)
type WhereBuilder struct {
	dialect Dialect
	args    []any
}

// NewWhereBuilder creates a WhereBuilder for dialect.
func NewWhereBuilder(dialect Dialect) *WhereBuilder {
	return &WhereBuilder{dialect: dialect}
}

// Build renders p and returns the clause (without WHERE) and its arguments.
// An always-true predicate renders "1=1".
func (wb *WhereBuilder) Build(p Predicate) (string, []any) {
	wb.args = nil
	clause := wb.render(p)
	return clause, wb.args
}

func (wb *WhereBuilder) bind(v any) string {
	wb.args = append(wb.args, sqlValue(v))
	return wb.dialect.Placeholder(len(wb.args))
}

func (wb *WhereBuilder) render(p Predicate) string {
	switch n := p.(type) {
	case And:
		return wb.join(n, " AND ")
	case Or:
		return wb.join(n, " OR ")
	case Eq:
		if n.Fold {
			s, _ := n.Value.(string)
			return fmt.Sprintf("LOWER(%s) = %s", n.Field, wb.bind(strings.ToLower(s)))
		}
		return fmt.Sprintf("%s = %s", n.Field, wb.bind(n.Value))
	case In:
		return wb.renderIn(n)
	case Cmp:
		return fmt.Sprintf("%s %s %s", n.Field, n.Op, wb.bind(n.Value))
	case MonthEq:
		if wb.dialect == Postgres {
			return fmt.Sprintf("EXTRACT(MONTH FROM %s) = %s", n.Field, wb.bind(int(n.Month)))
		}
		return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER) = %s", n.Field, wb.bind(int(n.Month)))
	}
	return "1=1"
}

func (wb *WhereBuilder) join(children []Predicate, sep string) string {
	if len(children) == 0 {
		return "1=1"
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = wb.render(c)
		if _, nested := c.(Or); nested && sep == " AND " {
			parts[i] = "(" + parts[i] + ")"
		}
		if _, nested := c.(And); nested && sep == " OR " {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, sep)
}

func (wb *WhereBuilder) renderIn(n In) string {
	column := string(n.Field)
	values := n.Values
	if n.Fold {
		column = fmt.Sprintf("LOWER(%s)", n.Field)
		values = make([]string, len(n.Values))
		for i, v := range n.Values {
			values[i] = strings.ToLower(v)
		}
	}
	if len(values) == 0 {
		return "1=0"
	}
	if wb.dialect == Postgres {
		wb.args = append(wb.args, pq.Array(values))
		return fmt.Sprintf("%s = ANY(%s)", column, wb.dialect.Placeholder(len(wb.args)))
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = wb.bind(v)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}

// sqlValue converts predicate values to driver values. Dates bind as
// YYYY-MM-DD text.
func sqlValue(v any) any {
	if d, ok := v.(civil.Date); ok {
		return d.String()
	}
	return v
}
