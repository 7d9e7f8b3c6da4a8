// Package predicate models blocking join conditions as an expression tree
// instead of concatenated SQL fragments. The same tree renders to SQL for the
// relational backend and evaluates in process for the memory backend, so both
// backends share one definition of "pair satisfies a pass".
package predicate

import "strings"

// Node is a boolean expression over one candidate row pair.
type Node interface {
	// Eval decides the expression for a pair, given accessors returning the
	// normalized key value of a field on each side.
	Eval(sideA, sideB func(field string) string) bool
}

// Equality requires the pair to agree on one blocking variable with a
// non-empty value on side A. Blank keys never match, which keeps records with
// missing values out of blocks entirely.
type Equality struct {
	FieldA string
	FieldB string
}

func (e Equality) Eval(sideA, sideB func(string) string) bool {
	a := sideA(e.FieldA)
	if a == "" {
		return false
	}
	return a == sideB(e.FieldB)
}

// And is the conjunction of its operands. An empty And is false: a pass with
// no usable blocking variables selects nothing.
type And struct {
	Nodes []Node
}

func (a And) Eval(sideA, sideB func(string) string) bool {
	if len(a.Nodes) == 0 {
		return false
	}
	for _, n := range a.Nodes {
		if !n.Eval(sideA, sideB) {
			return false
		}
	}
	return true
}

// Or is the disjunction of its operands. An empty Or is false: excluding
// nothing yet.
type Or struct {
	Nodes []Node
}

func (o Or) Eval(sideA, sideB func(string) string) bool {
	for _, n := range o.Nodes {
		if n.Eval(sideA, sideB) {
			return true
		}
	}
	return false
}

// Not negates its operand.
type Not struct {
	Node Node
}

func (n Not) Eval(sideA, sideB func(string) string) bool {
	return !n.Node.Eval(sideA, sideB)
}

// PassConjunction builds the equality conjunction for a blocking-variable
// tuple pair. The slices must be the same length.
func PassConjunction(fieldsA, fieldsB []string) Node {
	nodes := make([]Node, 0, len(fieldsA))
	for i := range fieldsA {
		nodes = append(nodes, Equality{FieldA: fieldsA[i], FieldB: fieldsB[i]})
	}
	return And{Nodes: nodes}
}

// MapFields rewrites every equality leaf through per-side rename functions.
// The relational backend uses it to turn logical field names into sanitized
// column names before rendering SQL.
func MapFields(n Node, renameA, renameB func(string) string) Node {
	switch v := n.(type) {
	case Equality:
		return Equality{FieldA: renameA(v.FieldA), FieldB: renameB(v.FieldB)}
	case And:
		nodes := make([]Node, len(v.Nodes))
		for i, child := range v.Nodes {
			nodes[i] = MapFields(child, renameA, renameB)
		}
		return And{Nodes: nodes}
	case Or:
		nodes := make([]Node, len(v.Nodes))
		for i, child := range v.Nodes {
			nodes[i] = MapFields(child, renameA, renameB)
		}
		return Or{Nodes: nodes}
	case Not:
		return Not{Node: MapFields(v.Node, renameA, renameB)}
	default:
		return n
	}
}

// Describe returns a compact human-readable form used in diagnostics.
func Describe(n Node) string {
	switch v := n.(type) {
	case Equality:
		return v.FieldA + "=" + v.FieldB
	case And:
		parts := make([]string, 0, len(v.Nodes))
		for _, child := range v.Nodes {
			parts = append(parts, Describe(child))
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case Or:
		parts := make([]string, 0, len(v.Nodes))
		for _, child := range v.Nodes {
			parts = append(parts, Describe(child))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case Not:
		return "NOT " + Describe(v.Node)
	default:
		return "?"
	}
}
