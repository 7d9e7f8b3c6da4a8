package blocking

import (
	"stitch/internal/predicate"
)

type exclusionEntry struct {
	varsA []string
	varsB []string
}

// Exclusion is the cumulative record of blocking-variable tuples already
// used. It is a value: Combine returns a new version and never mutates the
// receiver, so a pass reads a frozen state while the orchestrator commits the
// next one exactly once after the pass succeeds. The zero value excludes
// nothing.
type Exclusion struct {
	entries []exclusionEntry
	version int
}

// Version returns how many passes have been committed into this state.
func (e Exclusion) Version() int { return e.version }

// Empty reports whether nothing has been blocked on yet.
func (e Exclusion) Empty() bool { return len(e.entries) == 0 }

// Combine returns a new state that additionally excludes pairs satisfiable
// by the given blocking tuple pair.
func (e Exclusion) Combine(varsA, varsB []string) Exclusion {
	entries := make([]exclusionEntry, len(e.entries), len(e.entries)+1)
	copy(entries, e.entries)
	entries = append(entries, exclusionEntry{
		varsA: append([]string(nil), varsA...),
		varsB: append([]string(nil), varsB...),
	})
	return Exclusion{entries: entries, version: e.version + 1}
}

// Predicate returns the disjunction of every committed pass's equality
// conjunction. A pair satisfying it was already offered for comparison.
func (e Exclusion) Predicate() predicate.Node {
	nodes := make([]predicate.Node, 0, len(e.entries))
	for _, entry := range e.entries {
		nodes = append(nodes, predicate.PassConjunction(entry.varsA, entry.varsB))
	}
	return predicate.Or{Nodes: nodes}
}

// Each visits every committed blocking tuple pair in commit order.
func (e Exclusion) Each(fn func(varsA, varsB []string)) {
	for _, entry := range e.entries {
		fn(entry.varsA, entry.varsB)
	}
}
