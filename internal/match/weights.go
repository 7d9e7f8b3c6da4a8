package match

import (
	"math"

	"stitch/internal/blocking"
	"stitch/internal/compare"
)

// Weigher assigns a run-relative weight to every scored pair. Ground-truth
// pairs always outrank every numbered pass; within the numbered passes an
// earlier pass outranks a later one regardless of similarity scores, and the
// scores order pairs within a pass. Weights are ordering keys only.
type Weigher struct {
	passCount int
	passNum   map[string]int
	gtNames   map[string]struct{}
}

// NewWeigher derives the weighting scale from the run plan.
func NewWeigher(plan blocking.Plan) Weigher {
	w := Weigher{
		passCount: plan.TotalPasses(),
		passNum:   make(map[string]int, len(plan.Passes)),
		gtNames:   make(map[string]struct{}, len(plan.GroundTruth)),
	}
	for _, pass := range plan.Passes {
		w.passNum[pass.Name] = pass.Num
	}
	for _, gt := range plan.GroundTruth {
		w.gtNames[gt.Name] = struct{}{}
	}
	return w
}

// Weight computes the ordering weight for one scored pair.
func (w Weigher) Weight(s compare.Scored) float64 {
	if _, ok := w.gtNames[s.PassName]; ok {
		return math.Pow(10, float64(w.passCount+1))
	}
	num := w.passNum[s.PassName]
	weight := math.Pow(10, float64(w.passCount-num))
	for _, score := range s.Scores {
		if score < 0 {
			score = 0.5
		}
		weight += score
	}
	return weight
}
