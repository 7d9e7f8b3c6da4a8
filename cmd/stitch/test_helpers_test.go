package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stitch/internal/config"
	"stitch/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	cfg        *config.Config
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, testsupport.WithGroundTruth("ssn"))
	configPath := filepath.Join(homeDir, ".config", "stitch", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{configPath: configPath, cfg: cfg}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "[match]\ntype = %q\nworkers = %d\n", cfg.Match.Type, cfg.Match.Workers)
	if len(cfg.Match.GroundTruthIDs) > 0 {
		fmt.Fprintf(&b, "ground_truth_ids = [%q]\n", cfg.Match.GroundTruthIDs[0])
	}
	for section, ds := range map[string]config.Dataset{
		"dataset_a": cfg.DatasetA,
		"dataset_b": cfg.DatasetB,
	} {
		if ds.Path == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[%s]\nname = %q\npath = %q\nid_column = %q\n", section, ds.Name, ds.Path, ds.IDColumn)
		fmt.Fprintf(&b, "[%s.fields]\n", section)
		for logical, column := range ds.Fields {
			fmt.Fprintf(&b, "%s = %q\n", logical, column)
		}
	}
	for num, pass := range cfg.Passes {
		fmt.Fprintf(&b, "\n[passes.%s]\nblock = [", num)
		for i, v := range pass.Block {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", v)
		}
		fmt.Fprintf(&b, "]\nchunk_size = %d\ncompare = [", pass.ChunkSize)
		for i, v := range pass.Compare {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", v)
		}
		b.WriteString("]\n")
	}
	fmt.Fprintf(&b, "\n[output]\ndir = %q\n", cfg.Output.Dir)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
