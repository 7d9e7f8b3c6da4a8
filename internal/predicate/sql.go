package predicate

import (
	"fmt"
	"strings"
)

// SQL renders the tree into a join condition over two table aliases. Field
// names are emitted as double-quoted identifiers, so callers must pass
// sanitized column names. Empty conjunctions render as FALSE and empty
// disjunctions as FALSE, mirroring Eval semantics.
func SQL(n Node, aliasA, aliasB string) string {
	switch v := n.(type) {
	case Equality:
		colA := quoteIdent(v.FieldA)
		colB := quoteIdent(v.FieldB)
		return fmt.Sprintf("(%s.%s = %s.%s AND %s.%s <> '' AND %s.%s IS NOT NULL)",
			aliasA, colA, aliasB, colB, aliasA, colA, aliasA, colA)
	case And:
		if len(v.Nodes) == 0 {
			return "(1 = 0)"
		}
		parts := make([]string, 0, len(v.Nodes))
		for _, child := range v.Nodes {
			parts = append(parts, SQL(child, aliasA, aliasB))
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case Or:
		if len(v.Nodes) == 0 {
			return "(1 = 0)"
		}
		parts := make([]string, 0, len(v.Nodes))
		for _, child := range v.Nodes {
			parts = append(parts, SQL(child, aliasA, aliasB))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case Not:
		return "NOT " + SQL(v.Node, aliasA, aliasB)
	default:
		return "(1 = 0)"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}
