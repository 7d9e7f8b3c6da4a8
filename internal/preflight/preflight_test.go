package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stitch/internal/config"
)

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if r := CheckFileReadable("Dataset A", path); !r.Passed {
		t.Errorf("readable file failed: %s", r.Detail)
	}
	if r := CheckFileReadable("Dataset A", filepath.Join(dir, "missing.csv")); r.Passed {
		t.Error("missing file passed")
	}
	if r := CheckFileReadable("Dataset A", dir); r.Passed {
		t.Error("directory passed as file")
	}
	if r := CheckFileReadable("Dataset A", ""); r.Passed {
		t.Error("empty path passed")
	}
}

func TestCheckDirectoryAccessCreatesMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	r := CheckDirectoryAccess("Output directory", path)
	if !r.Passed {
		t.Fatalf("check failed: %s", r.Detail)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestRunAllSkipsDatasetBOnDedup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Match.Type = config.MatchDedup
	cfg.DatasetA.Path = path
	cfg.Output.Dir = filepath.Join(dir, "out")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if !AllPassed(results) {
		t.Errorf("checks failed: %+v", results)
	}

	cfg.Match.Type = config.MatchOneToOne
	results = RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	if AllPassed(results) {
		t.Error("unconfigured dataset B should fail")
	}
}

func TestRunAllChecksSQLiteDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Match.Type = config.MatchDedup
	cfg.DatasetA.Path = path
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Database = &config.Database{Driver: "sqlite"}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	if !AllPassed(results) {
		t.Errorf("checks failed: %+v", results)
	}
}
