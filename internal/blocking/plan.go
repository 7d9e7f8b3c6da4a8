package blocking

import (
	"fmt"
	"strings"

	"stitch/internal/config"
)

// invertSuffix on a blocking variable marks the pass as inverted: side B's
// tuple order is reversed (e.g. blocking first/last against last/first).
const invertSuffix = "_inv"

// Pass is one numbered blocking pass. Vars carry logical field names with
// any inversion suffix already stripped.
type Pass struct {
	Num         int
	Name        string
	Vars        []string
	Inverted    bool
	ChunkSize   int
	CompareVars []string
}

// GroundTruth is a degenerate pass keyed on one identifier field assumed to
// already indicate equivalence. Ground-truth passes run before every
// numbered pass and receive the maximum weight.
type GroundTruth struct {
	Field string
	Name  string
}

// Plan is the ordered blocking strategy for a run.
type Plan struct {
	GroundTruth []GroundTruth
	Passes      []Pass
	Dedup       bool
}

// Spec is a resolved per-pass generation request handed to a backend. VarsB
// already reflects any inversion.
type Spec struct {
	Name  string
	VarsA []string
	VarsB []string
	Dedup bool
}

// Spec resolves the generation request for this pass.
func (p Pass) Spec(dedup bool) Spec {
	varsB := make([]string, len(p.Vars))
	copy(varsB, p.Vars)
	if p.Inverted {
		for i, j := 0, len(varsB)-1; i < j; i, j = i+1, j-1 {
			varsB[i], varsB[j] = varsB[j], varsB[i]
		}
	}
	return Spec{Name: p.Name, VarsA: p.Vars, VarsB: varsB, Dedup: dedup}
}

// Spec resolves the generation request for this ground-truth pass.
func (g GroundTruth) Spec(dedup bool) Spec {
	return Spec{Name: g.Name, VarsA: []string{g.Field}, VarsB: []string{g.Field}, Dedup: dedup}
}

// PlanFromConfig builds the run plan: ground-truth passes in configuration
// order, then numbered passes ascending.
func PlanFromConfig(cfg *config.Config) (Plan, error) {
	plan := Plan{Dedup: cfg.Dedup()}

	for _, id := range cfg.Match.GroundTruthIDs {
		if id == "" {
			continue
		}
		plan.GroundTruth = append(plan.GroundTruth, GroundTruth{
			Field: id,
			Name:  "dup_" + id,
		})
	}

	for _, num := range cfg.PassNumbers() {
		pc, ok := cfg.PassByNumber(num)
		if !ok {
			return Plan{}, fmt.Errorf("pass %d: missing configuration", num)
		}
		vars, inverted := stripInversion(pc.Block)
		plan.Passes = append(plan.Passes, Pass{
			Num:         num,
			Name:        fmt.Sprintf("p%d", num),
			Vars:        vars,
			Inverted:    inverted,
			ChunkSize:   pc.ChunkSize,
			CompareVars: append([]string(nil), pc.Compare...),
		})
	}

	return plan, nil
}

// TotalPasses returns the number of numbered passes, which anchors the
// weighting scale.
func (p Plan) TotalPasses() int { return len(p.Passes) }

func stripInversion(vars []string) ([]string, bool) {
	inverted := false
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		if strings.HasSuffix(v, invertSuffix) {
			inverted = true
			v = strings.TrimSuffix(v, invertSuffix)
		}
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out, inverted
}
