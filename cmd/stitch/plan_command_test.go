package main

import (
	"testing"

	"stitch/internal/config"
	"stitch/internal/testsupport"
)

func TestPlanListsGroundTruthAndPasses(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Backend: memory")
	requireContains(t, out, "dup_ssn")
	requireContains(t, out, "ground truth")
	requireContains(t, out, "p1")
}

func TestPlanMarksInvertedPasses(t *testing.T) {
	base := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithPasses(map[string]config.Pass{
		"1": {Block: []string{"fname", "lname_inv"}, ChunkSize: 10},
	}))
	configPath := base + "/config.toml"
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"plan"}, configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "yes")
	requireContains(t, out, "fname, lname")
}
