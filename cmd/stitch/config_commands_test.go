package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigNewAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err = runCLI(t, []string{"config", "new", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config new: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// A second write without --overwrite refuses.
	if _, _, err := runCLI(t, []string{"config", "new", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected refusal without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "new", "--path", target, "--overwrite"}, env.configPath); err != nil {
		t.Fatalf("config new --overwrite: %v", err)
	}
}

func TestConfigShowReportsBackend(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "memory backend")
	requireContains(t, out, "alpha")
}

func TestConfigValidateRejectsBadConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[match]\ntype = \"sideways\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, bad); err == nil {
		t.Fatal("expected validation failure")
	}
	_ = env
}
