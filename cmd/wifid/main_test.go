package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestRunCLINoArgs(t *testing.T) {
	if code := runCLI(nil); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunCLIUnknownCommand(t *testing.T) {
	if code := runCLI([]string{"frobnicate"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunCLIHelp(t *testing.T) {
	if code := runCLI([]string{"help"}); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunVersion(t *testing.T) {
	if code := runCLI([]string{"version"}); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if code := runCLI([]string{"version", "--json"}); code != 0 {
		t.Fatalf("json exit code = %d, want 0", code)
	}
}

func TestRunDoctor(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "wifid.yaml")
	cfg := fmt.Sprintf(`service:
  log_level: info
serial:
  port: /dev/null
audit:
  path: %s
`, filepath.Join(dir, "audit.db"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if code := runCLI([]string{"doctor", "--config", cfgPath, "--json"}); code != 0 {
		t.Fatalf("doctor exit code = %d, want 0", code)
	}
}

func TestRunDoctorMissingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	if code := runCLI([]string{"doctor", "--config", path}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
