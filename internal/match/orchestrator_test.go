package match

import (
	"context"
	"errors"
	"testing"

	"stitch/internal/blocking"
	"stitch/internal/compare"
	"stitch/internal/config"
	"stitch/internal/logging"
	"stitch/internal/output"
	"stitch/internal/recordset"
)

// fakeBackend records generation requests and serves canned pairs.
type fakeBackend struct {
	pairs      map[string][]blocking.Pair
	errs       map[string]error
	calls      []string
	exclusions []int
}

func (f *fakeBackend) GenerateCandidates(ctx context.Context, spec blocking.Spec, excl blocking.Exclusion) (blocking.Stream, int64, error) {
	f.calls = append(f.calls, spec.Name)
	f.exclusions = append(f.exclusions, excl.Version())
	if err := f.errs[spec.Name]; err != nil {
		return nil, 0, err
	}
	pairs := f.pairs[spec.Name]
	return &fakeStream{pairs: pairs}, int64(len(pairs)), nil
}

func (f *fakeBackend) Close() error { return nil }

type fakeStream struct {
	pairs []blocking.Pair
	pos   int
}

func (s *fakeStream) Next(ctx context.Context, limit int) ([]blocking.Pair, error) {
	if s.pos >= len(s.pairs) {
		return nil, nil
	}
	end := s.pos + limit
	if limit <= 0 || end > len(s.pairs) {
		end = len(s.pairs)
	}
	batch := s.pairs[s.pos:end]
	s.pos = end
	return batch, nil
}

func (s *fakeStream) Close() error { return nil }

func orchestratorFixture(t *testing.T, backend blocking.Backend, plan blocking.Plan) (*Orchestrator, *Tally) {
	t.Helper()
	set := recordset.New("a", []string{"ssn", "zip"})
	for i := 0; i < 8; i++ {
		set.Append("r"+string(rune('0'+i)), map[string]string{"ssn": "1", "zip": "2"})
	}
	cfg := config.Default()
	scorer := compare.NewScorer(set, set, plan, &cfg)
	tally := NewTally()
	d := NewDispatcher(1, scorer, NewWeigher(plan), func([]output.Row) error { return nil }, logging.NewNop())
	return NewOrchestrator(backend, plan, d, tally, logging.NewNop(), 10), tally
}

func TestOrchestratorRunsGroundTruthFirstThenAscending(t *testing.T) {
	plan := blocking.Plan{
		GroundTruth: []blocking.GroundTruth{{Field: "ssn", Name: "dup_ssn"}},
		Passes: []blocking.Pass{
			{Num: 1, Name: "p1", Vars: []string{"zip"}},
			{Num: 2, Name: "p2", Vars: []string{"zip"}},
		},
	}
	backend := &fakeBackend{pairs: map[string][]blocking.Pair{
		"dup_ssn": {{IDA: "r0", IDB: "r1", IdxA: 0, IdxB: 1}},
		"p1":      {{IDA: "r2", IDB: "r3", IdxA: 2, IdxB: 3}},
	}}
	o, tally := orchestratorFixture(t, backend, plan)

	reports, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	wantOrder := []string{"dup_ssn", "p1", "p2"}
	if len(backend.calls) != len(wantOrder) {
		t.Fatalf("calls = %v", backend.calls)
	}
	for i, want := range wantOrder {
		if backend.calls[i] != want {
			t.Errorf("call %d = %s, want %s", i, backend.calls[i], want)
		}
	}
	if len(reports) != 3 {
		t.Fatalf("reports = %+v", reports)
	}
	for _, r := range reports {
		if r.Status != PassCompleted {
			t.Errorf("pass %s status = %s", r.Name, r.Status)
		}
	}
	_, tallies := tally.Snapshot()
	if tallies["dup_ssn"].Candidates != 1 || tallies["p1"].Candidates != 1 {
		t.Errorf("tallies = %+v", tallies)
	}
}

func TestOrchestratorCommitsExclusionPerCompletedPass(t *testing.T) {
	plan := blocking.Plan{
		Passes: []blocking.Pass{
			{Num: 1, Name: "p1", Vars: []string{"zip"}},
			{Num: 2, Name: "p2", Vars: []string{"zip"}},
			{Num: 3, Name: "p3", Vars: []string{"zip"}},
		},
	}
	backend := &fakeBackend{}
	o, _ := orchestratorFixture(t, backend, plan)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Each pass sees exactly the state its predecessors committed.
	want := []int{0, 1, 2}
	for i, v := range backend.exclusions {
		if v != want[i] {
			t.Errorf("pass %d saw exclusion version %d, want %d", i, v, want[i])
		}
	}
	if o.Exclusion().Version() != 3 {
		t.Errorf("final exclusion version = %d", o.Exclusion().Version())
	}
}

func TestOrchestratorSkipsEmptyTupleWithoutCommitting(t *testing.T) {
	plan := blocking.Plan{
		Passes: []blocking.Pass{
			{Num: 1, Name: "p1", Vars: nil},
			{Num: 2, Name: "p2", Vars: []string{"zip"}},
		},
	}
	backend := &fakeBackend{}
	o, _ := orchestratorFixture(t, backend, plan)

	reports, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reports[0].Status != PassSkipped {
		t.Fatalf("p1 = %+v", reports[0])
	}
	if len(backend.calls) != 1 || backend.calls[0] != "p2" {
		t.Fatalf("calls = %v", backend.calls)
	}
	// The skipped pass committed nothing.
	if backend.exclusions[0] != 0 {
		t.Errorf("p2 saw exclusion version %d, want 0", backend.exclusions[0])
	}
}

func TestOrchestratorAbsorbsRecoverableFailures(t *testing.T) {
	plan := blocking.Plan{
		Passes: []blocking.Pass{
			{Num: 1, Name: "p1", Vars: []string{"missing"}},
			{Num: 2, Name: "p2", Vars: []string{"zip"}},
		},
	}
	backend := &fakeBackend{errs: map[string]error{
		"p1": blocking.Wrap(blocking.ErrConfiguration, "p1", "generate candidates", "missing variable", nil),
	}}
	o, _ := orchestratorFixture(t, backend, plan)

	reports, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reports[0].Status != PassSkipped || reports[0].Reason == "" {
		t.Fatalf("p1 = %+v", reports[0])
	}
	if reports[1].Status != PassCompleted {
		t.Fatalf("p2 = %+v", reports[1])
	}
	// Recoverable skips commit nothing either.
	if backend.exclusions[1] != 0 {
		t.Errorf("p2 saw exclusion version %d, want 0", backend.exclusions[1])
	}
}

func TestOrchestratorFatalErrorAbortsRun(t *testing.T) {
	plan := blocking.Plan{
		Passes: []blocking.Pass{
			{Num: 1, Name: "p1", Vars: []string{"zip"}},
			{Num: 2, Name: "p2", Vars: []string{"zip"}},
		},
	}
	backend := &fakeBackend{errs: map[string]error{
		"p1": errors.New("disk full"),
	}}
	o, _ := orchestratorFixture(t, backend, plan)

	if _, err := o.Run(context.Background()); err == nil {
		t.Fatal("expected fatal error")
	}
	if len(backend.calls) != 1 {
		t.Fatalf("calls = %v, run should stop at the failing pass", backend.calls)
	}
}
