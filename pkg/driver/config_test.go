package driver

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "minipy.yml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxTicks != 0 || cfg.Suite != "" {
		t.Fatalf("missing file should yield zero config, got %#v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minipy.yml")
	writeFile(t, path, `
max_ticks: 10000
suite: suites/core/suite.yml
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxTicks != 10000 {
		t.Fatalf("MaxTicks = %d", cfg.MaxTicks)
	}
	if cfg.Suite != "suites/core/suite.yml" {
		t.Fatalf("Suite = %q", cfg.Suite)
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minipy.yml")
	writeFile(t, path, `
max_ticks: 5
surprise: true
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown-field failure")
	}
}
