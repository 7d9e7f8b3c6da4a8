package compare

import (
	"context"
	"fmt"
	"strings"

	"stitch/internal/blocking"
	"stitch/internal/config"
	"stitch/internal/recordset"
)

// Scored is one match result before weighting: the pair, its owning pass,
// per-variable similarity scores, and the strictness tiers it reached.
type Scored struct {
	Pair     blocking.Pair
	PassName string
	Scores   map[string]float64
	Strict   bool
	Moderate bool
	Relaxed  bool
	Review   bool
}

// Scorer evaluates chunks for every pass of a run. Ground-truth passes skip
// similarity entirely: sharing the ground-truth identifier already confirms
// the match, so every tier is set.
type Scorer struct {
	setA        *recordset.Set
	setB        *recordset.Set
	passVars    map[string][]string
	groundTruth map[string]struct{}
	params      map[string]config.Comparer
}

// NewScorer builds a scorer for the run's plan. Comparison variables missing
// from either record set are dropped up front, mirroring the skip semantics
// of blocking variables.
func NewScorer(setA, setB *recordset.Set, plan blocking.Plan, cfg *config.Config) *Scorer {
	s := &Scorer{
		setA:        setA,
		setB:        setB,
		passVars:    make(map[string][]string, len(plan.Passes)),
		groundTruth: make(map[string]struct{}, len(plan.GroundTruth)),
		params:      make(map[string]config.Comparer),
	}
	for _, gt := range plan.GroundTruth {
		s.groundTruth[gt.Name] = struct{}{}
	}
	for _, pass := range plan.Passes {
		vars := make([]string, 0, len(pass.CompareVars))
		for _, v := range pass.CompareVars {
			if !setA.HasField(v) || !setB.HasField(v) {
				continue
			}
			vars = append(vars, v)
			if _, ok := s.params[v]; !ok {
				s.params[v] = cfg.ComparerFor(v)
			}
		}
		s.passVars[pass.Name] = vars
	}
	return s
}

// Vars returns the usable comparison variables for a pass.
func (s *Scorer) Vars(passName string) []string {
	return s.passVars[passName]
}

// AllVars returns every comparison variable any pass can emit, in a stable
// order. The output schema appends these after the fixed columns.
func (s *Scorer) AllVars(plan blocking.Plan) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, pass := range plan.Passes {
		for _, v := range s.passVars[pass.Name] {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Score evaluates one chunk. Safe for concurrent use.
func (s *Scorer) Score(ctx context.Context, chunk blocking.Chunk) ([]Scored, error) {
	if _, ok := s.groundTruth[chunk.PassName]; ok {
		return s.scoreGroundTruth(ctx, chunk)
	}

	vars := s.passVars[chunk.PassName]
	out := make([]Scored, 0, len(chunk.Pairs))
	for _, pair := range chunk.Pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pair.IdxA < 0 || pair.IdxA >= s.setA.Len() || pair.IdxB < 0 || pair.IdxB >= s.setB.Len() {
			return nil, fmt.Errorf("pass %s: pair (%d,%d) outside record sets", chunk.PassName, pair.IdxA, pair.IdxB)
		}

		scored := Scored{Pair: pair, PassName: chunk.PassName}
		if len(vars) == 0 {
			// Exact block match with nothing further to compare.
			scored.Strict, scored.Moderate, scored.Relaxed, scored.Review = true, true, true, true
			out = append(out, scored)
			continue
		}

		scored.Scores = make(map[string]float64, len(vars))
		scored.Strict, scored.Moderate, scored.Relaxed, scored.Review = true, true, true, true
		for _, v := range vars {
			params := s.params[v]
			score := s.similarity(v, pair, params)
			scored.Scores[v] = score
			scored.Strict = scored.Strict && score >= params.Strict
			scored.Moderate = scored.Moderate && score >= params.Moderate
			scored.Relaxed = scored.Relaxed && score >= params.Relaxed
			scored.Review = scored.Review && score >= params.Review
		}
		out = append(out, scored)
	}
	return out, nil
}

func (s *Scorer) scoreGroundTruth(ctx context.Context, chunk blocking.Chunk) ([]Scored, error) {
	out := make([]Scored, 0, len(chunk.Pairs))
	for _, pair := range chunk.Pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, Scored{
			Pair:     pair,
			PassName: chunk.PassName,
			Strict:   true,
			Moderate: true,
			Relaxed:  true,
			Review:   true,
		})
	}
	return out, nil
}

func (s *Scorer) similarity(variable string, pair blocking.Pair, params config.Comparer) float64 {
	valA := s.setA.Key(pair.IdxA, variable)
	valB := s.setB.Key(pair.IdxB, variable)
	if valA == "" || valB == "" {
		return params.MissingValue
	}
	switch strings.ToLower(params.Method) {
	case "exact":
		if valA == valB {
			return 1
		}
		return 0
	default:
		return JaroWinkler(valA, valB)
	}
}
