package match

import (
	"sync"

	"stitch/internal/output"
)

// PassTally accumulates counts for one pass.
type PassTally struct {
	Candidates int64
	Strict     int64
	Moderate   int64
	Relaxed    int64
	Review     int64
}

// Tally aggregates per-pass counts across concurrent workers.
type Tally struct {
	mu     sync.Mutex
	passes map[string]*PassTally
	order  []string
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{passes: make(map[string]*PassTally)}
}

// AddCandidates records the candidate count a pass generated.
func (t *Tally) AddCandidates(pass string, n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forPass(pass).Candidates += n
}

// Observe folds a batch of weighted rows into the tally.
func (t *Tally) Observe(rows []output.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range rows {
		pt := t.forPass(row.Scored.PassName)
		if row.Scored.Strict {
			pt.Strict++
		}
		if row.Scored.Moderate {
			pt.Moderate++
		}
		if row.Scored.Relaxed {
			pt.Relaxed++
		}
		if row.Scored.Review {
			pt.Review++
		}
	}
}

// Snapshot returns pass names in first-seen order with copies of their
// tallies.
func (t *Tally) Snapshot() ([]string, map[string]PassTally) {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := append([]string(nil), t.order...)
	out := make(map[string]PassTally, len(t.passes))
	for name, pt := range t.passes {
		out[name] = *pt
	}
	return names, out
}

func (t *Tally) forPass(pass string) *PassTally {
	pt, ok := t.passes[pass]
	if !ok {
		pt = &PassTally{}
		t.passes[pass] = pt
		t.order = append(t.order, pass)
	}
	return pt
}
