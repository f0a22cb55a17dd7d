package query

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Node is the JSON form of a predicate sent to the remote backend.
type Node struct {
	Op       string   `json:"op"`
	Field    Field    `json:"field,omitempty"`
	Value    any      `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
	Fold     bool     `json:"fold,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// Payload op names.
const (
	nodeTrue  = "true"
	nodeAnd   = "and"
	nodeOr    = "or"
	nodeEq    = "eq"
	nodeIn    = "in"
	nodeGTE   = "gte"
	nodeLTE   = "lte"
	nodeMonth = "month"
)

// ToNode converts a predicate into its payload form. Dates become
// YYYY-MM-DD strings.
func ToNode(p Predicate) Node {
	switch n := p.(type) {
	case And:
		return Node{Op: nodeAnd, Children: toNodes(n)}
	case Or:
		return Node{Op: nodeOr, Children: toNodes(n)}
	case Eq:
		return Node{Op: nodeEq, Field: n.Field, Value: sqlValue(n.Value), Fold: n.Fold}
	case In:
		return Node{Op: nodeIn, Field: n.Field, Values: n.Values, Fold: n.Fold}
	case Cmp:
		op := nodeGTE
		if n.Op == OpLTE {
			op = nodeLTE
		}
		return Node{Op: op, Field: n.Field, Value: sqlValue(n.Value)}
	case MonthEq:
		return Node{Op: nodeMonth, Field: n.Field, Value: int(n.Month)}
	}
	return Node{Op: nodeTrue}
}

func toNodes(ps []Predicate) []Node {
	out := make([]Node, len(ps))
	for i, p := range ps {
		out[i] = ToNode(p)
	}
	return out
}

// FromNode rebuilds a predicate from its payload form, restoring value
// types from the field they apply to.
func FromNode(n Node) (Predicate, error) {
	switch n.Op {
	case nodeTrue, "":
		return True{}, nil
	case nodeAnd, nodeOr:
		children := make([]Predicate, len(n.Children))
		for i, c := range n.Children {
			p, err := FromNode(c)
			if err != nil {
				return nil, err
			}
			children[i] = p
		}
		if n.Op == nodeAnd {
			return And(children), nil
		}
		return Or(children), nil
	case nodeEq:
		v, err := fieldValue(n.Field, n.Value)
		if err != nil {
			return nil, err
		}
		return Eq{Field: n.Field, Value: v, Fold: n.Fold}, nil
	case nodeIn:
		return In{Field: n.Field, Values: n.Values, Fold: n.Fold}, nil
	case nodeGTE, nodeLTE:
		v, err := fieldValue(n.Field, n.Value)
		if err != nil {
			return nil, err
		}
		op := OpGTE
		if n.Op == nodeLTE {
			op = OpLTE
		}
		return Cmp{Field: n.Field, Op: op, Value: v}, nil
	case nodeMonth:
		m, err := intValue(n.Value)
		if err != nil {
			return nil, err
		}
		return MonthEq{Field: n.Field, Month: time.Month(m)}, nil
	}
	return nil, fmt.Errorf("unknown predicate op %q", n.Op)
}

func fieldValue(f Field, v any) (any, error) {
	switch f {
	case FieldYear:
		return intValue(v)
	case FieldDate:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("date value %v is not a string", v)
		}
		return civil.ParseDate(s)
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s value %v is not a string", f, v)
	}
	return s, nil
}

// intValue accepts JSON numbers, which decode as float64.
func intValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("value %v is not a number", v)
}
