package blocking

import (
	"testing"

	"stitch/internal/config"
)

func TestPlanFromConfigOrdersPasses(t *testing.T) {
	cfg := config.Default()
	cfg.Match.GroundTruthIDs = []string{"ssn", "tax_id"}
	cfg.Passes = map[string]config.Pass{
		"2":  {Block: []string{"zip"}, ChunkSize: 100},
		"1":  {Block: []string{"ssn"}, ChunkSize: 200, Compare: []string{"fname"}},
		"10": {Block: nil, ChunkSize: 50},
	}

	plan, err := PlanFromConfig(&cfg)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.GroundTruth) != 2 || plan.GroundTruth[0].Name != "dup_ssn" {
		t.Fatalf("ground truth = %+v", plan.GroundTruth)
	}
	wantNames := []string{"p1", "p2", "p10"}
	if len(plan.Passes) != len(wantNames) {
		t.Fatalf("passes = %+v", plan.Passes)
	}
	for i, want := range wantNames {
		if plan.Passes[i].Name != want {
			t.Errorf("pass %d = %s, want %s", i, plan.Passes[i].Name, want)
		}
	}
	if len(plan.Passes[2].Vars) != 0 {
		t.Error("pass 10 should carry an empty tuple")
	}
	if plan.TotalPasses() != 3 {
		t.Errorf("total passes = %d, want 3", plan.TotalPasses())
	}
}

func TestStripInversionMarksPass(t *testing.T) {
	vars, inverted := stripInversion([]string{"fname_inv", "lname_inv"})
	if !inverted {
		t.Fatal("expected inverted pass")
	}
	if vars[0] != "fname" || vars[1] != "lname" {
		t.Fatalf("vars = %v", vars)
	}

	vars, inverted = stripInversion([]string{"zip", "bday"})
	if inverted {
		t.Fatal("plain tuple marked inverted")
	}
	if len(vars) != 2 {
		t.Fatalf("vars = %v", vars)
	}
}

func TestSpecAppliesInversionToSideB(t *testing.T) {
	pass := Pass{Num: 3, Name: "p3", Vars: []string{"fname", "lname"}, Inverted: true}
	spec := pass.Spec(false)
	if spec.VarsA[0] != "fname" || spec.VarsA[1] != "lname" {
		t.Fatalf("varsA = %v", spec.VarsA)
	}
	if spec.VarsB[0] != "lname" || spec.VarsB[1] != "fname" {
		t.Fatalf("varsB = %v", spec.VarsB)
	}
}

func TestGroundTruthSpec(t *testing.T) {
	gt := GroundTruth{Field: "ssn", Name: "dup_ssn"}
	spec := gt.Spec(true)
	if !spec.Dedup || spec.Name != "dup_ssn" {
		t.Fatalf("spec = %+v", spec)
	}
	if len(spec.VarsA) != 1 || spec.VarsA[0] != "ssn" {
		t.Fatalf("varsA = %v", spec.VarsA)
	}
}
