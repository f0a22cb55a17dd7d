// Package query turns domain query objects into a small predicate tree and
// renders that tree for each backend: evaluated in memory, as parameterized
// SQL, or as a JSON payload.
//
// Values inside predicates are always one of string, int or civil.Date.
// Enum fields carry their text name.
package query

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Field names a filterable column. Field names double as SQL column names.
type Field string

const (
	FieldRegionName Field = "region_name"
	FieldRegionType Field = "region_type"
	FieldHomeType   Field = "home_type"
	FieldPercentile Field = "percentile"
	FieldYear       Field = "year"
	FieldTerm       Field = "term"
	FieldDate       Field = "date"
	FieldCity       Field = "city"
	FieldZipcode    Field = "zipcode"
)

// Op is a comparison operator.
type Op string

const (
	OpGTE Op = ">="
	OpLTE Op = "<="
)

// Predicate is a node of the filter tree.
type Predicate interface {
	predicate()
}

// Eq matches Field == Value. Fold compares strings case-insensitively.
type Eq struct {
	Field Field
	Value any
	Fold  bool
}

// In matches Field against a set of strings. Fold compares case-insensitively.
type In struct {
	Field  Field
	Values []string
	Fold   bool
}

// Cmp matches Field Op Value.
type Cmp struct {
	Field Field
	Op    Op
	Value any
}

// MonthEq matches dates whose month equals Month.
type MonthEq struct {
	Field Field
	Month time.Month
}

// And matches when every child matches.
type And []Predicate

// Or matches when any child matches.
type Or []Predicate

// True matches everything.
type True struct{}

func (Eq) predicate()      {}
func (In) predicate()      {}
func (Cmp) predicate()     {}
func (MonthEq) predicate() {}
func (And) predicate()     {}
func (Or) predicate()      {}
func (True) predicate()    {}

// all joins predicates with AND, dropping True children and flattening
// nested ANDs.
func all(ps ...Predicate) Predicate {
	var out And
	for _, p := range ps {
		switch n := p.(type) {
		case nil, True:
			continue
		case And:
			out = append(out, n...)
		default:
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return True{}
	case 1:
		return out[0]
	}
	return out
}

// anyOf joins predicates with OR. A True child makes the whole node True;
// no children at all is also True.
func anyOf(ps ...Predicate) Predicate {
	var out Or
	for _, p := range ps {
		if p == nil {
			continue
		}
		if _, ok := p.(True); ok {
			return True{}
		}
		out = append(out, p)
	}
	switch len(out) {
	case 0:
		return True{}
	case 1:
		return out[0]
	}
	return out
}

// Record exposes the field values of one record to Eval.
type Record func(Field) any

// Eval reports whether rec satisfies p.
func Eval(p Predicate, rec Record) bool {
	switch n := p.(type) {
	case True:
		return true
	case And:
		for _, c := range n {
			if !Eval(c, rec) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range n {
			if Eval(c, rec) {
				return true
			}
		}
		return false
	case Eq:
		c, ok := compare(rec(n.Field), n.Value, n.Fold)
		return ok && c == 0
	case In:
		s, ok := rec(n.Field).(string)
		if !ok {
			return false
		}
		for _, v := range n.Values {
			if s == v || (n.Fold && strings.EqualFold(s, v)) {
				return true
			}
		}
		return false
	case Cmp:
		c, ok := compare(rec(n.Field), n.Value, false)
		if !ok {
			return false
		}
		if n.Op == OpGTE {
			return c >= 0
		}
		return c <= 0
	case MonthEq:
		d, ok := rec(n.Field).(civil.Date)
		return ok && d.Month == n.Month
	}
	return false
}

// compare orders a against b. ok is false when the types differ.
func compare(a, b any, fold bool) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		if fold {
			av, bv = strings.ToLower(av), strings.ToLower(bv)
		}
		return strings.Compare(av, bv), true
	case int:
		bv, ok := b.(int)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case civil.Date:
		bv, ok := b.(civil.Date)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
