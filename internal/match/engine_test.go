package match

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gofrs/flock"

	"stitch/internal/config"
	"stitch/internal/logging"
)

func acquireForTest(path string) (func(), error) {
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("lock already held")
	}
	return func() { l.Unlock() }, nil
}

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func engineConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, filepath.Join(dir, "a.csv"), [][]string{
		{"person_id", "soc", "first", "last", "postal"},
		{"a1", "111", "martha", "smith", "02134"},
		{"a2", "222", "john", "doe", "02134"},
		{"a3", "", "jane", "roe", "10001"},
	})
	writeCSV(t, filepath.Join(dir, "b.csv"), [][]string{
		{"person_id", "soc", "first", "last", "postal"},
		{"b1", "111", "marhta", "smith", "02134"},
		{"b2", "333", "john", "doe", "02134"},
		{"b3", "", "janet", "roe", "10001"},
	})

	cfg := config.Default()
	cfg.Match.Workers = 2
	cfg.Match.GroundTruthIDs = []string{"ssn"}
	cfg.DatasetA = config.Dataset{
		Name:     "alpha",
		Path:     filepath.Join(dir, "a.csv"),
		IDColumn: "person_id",
		Fields: map[string]string{
			"ssn":   "soc",
			"fname": "first",
			"lname": "last",
			"zip":   "postal",
		},
	}
	cfg.DatasetB = config.Dataset{
		Name:     "beta",
		Path:     filepath.Join(dir, "b.csv"),
		IDColumn: "person_id",
		Fields: map[string]string{
			"ssn":   "soc",
			"fname": "first",
			"lname": "last",
			"zip":   "postal",
		},
	}
	cfg.Passes = map[string]config.Pass{
		"1": {Block: []string{"lname", "zip"}, ChunkSize: 10, Compare: []string{"fname"}},
		"2": {Block: []string{"zip"}, ChunkSize: 10, Compare: []string{"fname", "lname"}},
	}
	cfg.Output.Dir = filepath.Join(dir, "out")
	return &cfg
}

func readResult(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	return records
}

func TestEngineEndToEnd(t *testing.T) {
	cfg := engineConfig(t)
	engine := NewEngine(cfg, logging.NewNop())

	summary, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" || summary.ResultPath == "" {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Passes) != 3 {
		t.Fatalf("passes = %+v", summary.Passes)
	}

	records := readResult(t, summary.ResultPath)
	if int64(len(records)-1) != summary.Rows {
		t.Fatalf("rows = %d, summary says %d", len(records)-1, summary.Rows)
	}
	if summary.Rows == 0 {
		t.Fatal("no matches produced")
	}

	// Header carries the fixed schema plus comparison variables.
	header := records[0]
	if header[0] != "indv_id_a" || header[9] != "weight" {
		t.Fatalf("header = %v", header)
	}

	// Weights descend; the ground-truth pair leads.
	if records[1][4] != "dup_ssn" {
		t.Errorf("top row pass = %s, want dup_ssn", records[1][4])
	}
	var prev float64
	for i, rec := range records[1:] {
		weight, err := strconv.ParseFloat(rec[9], 64)
		if err != nil {
			t.Fatalf("parse weight: %v", err)
		}
		if i > 0 && weight > prev {
			t.Errorf("row %d weight %f exceeds previous %f", i, weight, prev)
		}
		prev = weight
	}

	// Every pair appears exactly once across all passes.
	seen := map[string]string{}
	for _, rec := range records[1:] {
		key := rec[0] + "|" + rec[1]
		if otherPass, dup := seen[key]; dup {
			t.Errorf("pair %s offered by both %s and %s", key, otherPass, rec[4])
		}
		seen[key] = rec[4]
	}

	// Shards are merged away.
	entries, err := os.ReadDir(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".csv" && entry.Name() != filepath.Base(summary.ResultPath) {
			t.Errorf("leftover shard %s", entry.Name())
		}
	}
}

func TestEngineDedupRun(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a.csv"), [][]string{
		{"person_id", "first", "postal"},
		{"r1", "martha", "02134"},
		{"r2", "marhta", "02134"},
		{"r3", "zelda", "02134"},
	})

	cfg := config.Default()
	cfg.Match.Type = config.MatchDedup
	cfg.Match.Workers = 1
	cfg.DatasetA = config.Dataset{
		Name:     "alpha",
		Path:     filepath.Join(dir, "a.csv"),
		IDColumn: "person_id",
		Fields:   map[string]string{"fname": "first", "zip": "postal"},
	}
	cfg.Passes = map[string]config.Pass{
		"1": {Block: []string{"zip"}, ChunkSize: 10, Compare: []string{"fname"}},
	}
	cfg.Output.Dir = filepath.Join(dir, "out")

	engine := NewEngine(&cfg, logging.NewNop())
	summary, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Rows != 3 {
		t.Fatalf("rows = %d, want 3 unordered pairs", summary.Rows)
	}

	records := readResult(t, summary.ResultPath)
	for _, rec := range records[1:] {
		if rec[0] == rec[1] {
			t.Errorf("self pair %s", rec[0])
		}
	}
}

func TestEngineRefusesConcurrentOutputDir(t *testing.T) {
	cfg := engineConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	// Hold the lock the way a live run would.
	held, err := acquireForTest(filepath.Join(cfg.Output.Dir, ".stitch.lock"))
	if err != nil {
		t.Fatalf("pre-lock: %v", err)
	}
	defer held()

	engine := NewEngine(cfg, logging.NewNop())
	if _, err := engine.Run(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}
}
