package blocking

import (
	"context"
	"fmt"
	"strings"

	"stitch/internal/recordset"
)

// MemoryBackend blocks without a relational store: an equality-key merge
// over normalized blocking keys, followed by removal of pairs already
// satisfiable by a committed pass. For dedup runs both sides are the same
// set.
type MemoryBackend struct {
	setA *recordset.Set
	setB *recordset.Set
}

// NewMemoryBackend creates a backend over the loaded record sets. Pass the
// same set twice for dedup runs.
func NewMemoryBackend(setA, setB *recordset.Set) *MemoryBackend {
	return &MemoryBackend{setA: setA, setB: setB}
}

// Separator for composite keys; never appears in normalized values.
const keySep = "\x1f"

func (m *MemoryBackend) GenerateCandidates(ctx context.Context, spec Spec, excl Exclusion) (Stream, int64, error) {
	if err := checkVars(m.setA, m.setB, spec); err != nil {
		return nil, 0, err
	}
	if len(spec.VarsA) == 0 {
		return &sliceStream{}, 0, nil
	}

	// Index side B by composite key, dropping records with any blank key
	// component. Shared blankness must never form a block.
	index := make(map[string][]int)
	for i := 0; i < m.setB.Len(); i++ {
		key, ok := compositeKey(m.setB, i, spec.VarsB)
		if !ok {
			continue
		}
		index[key] = append(index[key], i)
	}

	prior := excl.Predicate()
	var pairs []Pair
	for i := 0; i < m.setA.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		key, ok := compositeKey(m.setA, i, spec.VarsA)
		if !ok {
			continue
		}
		recA := m.setA.Record(i)
		for _, j := range index[key] {
			if spec.Dedup {
				if i >= j {
					continue
				}
				if recA.ID == m.setB.Record(j).ID {
					continue
				}
			}
			// Pairs captured by an earlier pass were already offered;
			// evaluating the committed predicate here is the in-process
			// analog of the relational AND NOT (prior) clause. Sides are
			// kept apart by construction, so same-named columns on both
			// sides cannot collide.
			if prior.Eval(keyAccessor(m.setA, i), keyAccessor(m.setB, j)) {
				continue
			}
			pairs = append(pairs, Pair{
				IDA:  recA.ID,
				IDB:  m.setB.Record(j).ID,
				IdxA: i,
				IdxB: j,
			})
		}
	}

	return &sliceStream{pairs: pairs}, int64(len(pairs)), nil
}

func (m *MemoryBackend) Close() error { return nil }

func compositeKey(set *recordset.Set, i int, vars []string) (string, bool) {
	parts := make([]string, len(vars))
	for k, v := range vars {
		key := set.Key(i, v)
		if key == "" {
			return "", false
		}
		parts[k] = key
	}
	return strings.Join(parts, keySep), true
}

func keyAccessor(set *recordset.Set, i int) func(string) string {
	return func(field string) string { return set.Key(i, field) }
}

func checkVars(setA, setB *recordset.Set, spec Spec) error {
	var missing []string
	for _, v := range spec.VarsA {
		if !setA.HasField(v) {
			missing = append(missing, v)
		}
	}
	for _, v := range spec.VarsB {
		if !setB.HasField(v) {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return Wrap(ErrConfiguration, spec.Name, "generate candidates",
			fmt.Sprintf("blocking variables not present on both sides: %s", strings.Join(dedupeStrings(missing), ", ")), nil)
	}
	return nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
