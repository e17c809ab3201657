package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsFillUnsetFields(t *testing.T) {
	cfg := Default()

	if cfg.Collect.QuickMax != 100 {
		t.Errorf("QuickMax = %d, want 100", cfg.Collect.QuickMax)
	}
	if cfg.Collect.DeepMax != 150 {
		t.Errorf("DeepMax = %d, want 150", cfg.Collect.DeepMax)
	}
	if cfg.Summarize.QuickTimeout != 60*time.Second {
		t.Errorf("QuickTimeout = %v, want 60s", cfg.Summarize.QuickTimeout)
	}
	if cfg.Summarize.DeepTimeout != 90*time.Second {
		t.Errorf("DeepTimeout = %v, want 90s", cfg.Summarize.DeepTimeout)
	}
	if cfg.Summarize.Provider != "claude" {
		t.Errorf("Provider = %q, want claude", cfg.Summarize.Provider)
	}
	if cfg.Browser.Headless == nil || !*cfg.Browser.Headless {
		t.Error("Headless default should be true")
	}
	if cfg.Nav.MaxReinitFailures != 5 {
		t.Errorf("MaxReinitFailures = %d, want 5", cfg.Nav.MaxReinitFailures)
	}
}

func TestLoadFileOverridesAndKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "comsum.yaml")
	src := `
collect:
  quick_max: 25
  min_length: 10
summarize:
  provider: openai
  quick_timeout: 5s
browser:
  headless: false
api:
  addr: ":8099"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Collect.QuickMax != 25 {
		t.Errorf("QuickMax = %d, want 25", cfg.Collect.QuickMax)
	}
	if cfg.Collect.MinLength != 10 {
		t.Errorf("MinLength = %d, want 10", cfg.Collect.MinLength)
	}
	if cfg.Summarize.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Summarize.Provider)
	}
	if cfg.Summarize.QuickTimeout != 5*time.Second {
		t.Errorf("QuickTimeout = %v, want 5s", cfg.Summarize.QuickTimeout)
	}
	if cfg.Browser.Headless == nil || *cfg.Browser.Headless {
		t.Error("Headless override to false lost")
	}
	if cfg.API.Addr != ":8099" {
		t.Errorf("Addr = %q, want :8099", cfg.API.Addr)
	}

	// Unset sections still get defaults.
	if cfg.Collect.DeepMax != 150 {
		t.Errorf("DeepMax = %d, want default 150", cfg.Collect.DeepMax)
	}
	if cfg.Expand.BatchSize != 3 {
		t.Errorf("BatchSize = %d, want default 3", cfg.Expand.BatchSize)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("invalid yaml should error")
	}
}
