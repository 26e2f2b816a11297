package cql2

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldMapper maps a CQL2 attribute name to the backend's physical
// column expression, substituting the datetime sentinel for the
// datasource's configured datetime_col (spec §4.2).
type FieldMapper func(attribute string) string

// Dialect supplies backend-specific quoting/escaping so one AST visitor
// serves every collection-provider backend (spec Design Notes §9:
// "Centralise a CQL AST with a visitor interface and pluggable
// FieldMapper + Dialect, so each backend only supplies dialect
// specifics").
type Dialect interface {
	QuoteIdent(name string) string
	QuoteString(s string) string
	Placeholder(i int) string // i is 1-based positional arg index; "" for inline literals
}

// SQLDialect is a generic ANSI-ish dialect shared by the DuckDB-backed
// sql and parquet collection providers.
type SQLDialect struct{}

func (SQLDialect) QuoteIdent(name string) string { return `"` + strings.ReplaceAll(name, `"`, `""`) + `"` }
func (SQLDialect) QuoteString(s string) string    { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
func (SQLDialect) Placeholder(i int) string       { return "" } // inline literals; DuckDB driver args used only for user-supplied zone lists

// ToSQL lowers a CQL2 AST to a backend WHERE-clause fragment (without
// the "WHERE" keyword), using mapper to resolve attribute names to
// physical columns and dialect for quoting.
func ToSQL(n *Node, mapper FieldMapper, dialect Dialect) string {
	if n == nil {
		return ""
	}
	switch n.Op {
	case OpAnd, OpOr:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = "(" + ToSQL(c, mapper, dialect) + ")"
		}
		sep := " AND "
		if n.Op == OpOr {
			sep = " OR "
		}
		return strings.Join(parts, sep)
	case OpNot:
		return "NOT (" + ToSQL(n.Children[0], mapper, dialect) + ")"
	case OpIsNul:
		return fmt.Sprintf("%s IS NULL", field(n.Property, mapper, dialect))
	case OpIn:
		items := make([]string, len(n.Values))
		for i, v := range n.Values {
			items[i] = literal(v, dialect)
		}
		return fmt.Sprintf("%s IN (%s)", field(n.Property, mapper, dialect), strings.Join(items, ", "))
	case OpBtwn:
		return fmt.Sprintf("%s BETWEEN %s AND %s", field(n.Property, mapper, dialect),
			literal(n.Values[0], dialect), literal(n.Values[1], dialect))
	case OpLike:
		return fmt.Sprintf("%s LIKE %s", field(n.Property, mapper, dialect), literal(n.Value, dialect))
	default:
		return fmt.Sprintf("%s %s %s", field(n.Property, mapper, dialect), n.Op, literal(n.Value, dialect))
	}
}

func field(name string, mapper FieldMapper, dialect Dialect) string {
	if mapper != nil {
		if mapped := mapper(name); mapped != "" {
			return mapped
		}
	}
	return dialect.QuoteIdent(name)
}

func literal(v any, dialect Dialect) string {
	switch t := v.(type) {
	case string:
		return dialect.QuoteString(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	default:
		return dialect.QuoteString(fmt.Sprintf("%v", t))
	}
}
