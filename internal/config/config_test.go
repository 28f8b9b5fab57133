package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"triage/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "triage", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7492" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Pipeline.ClassificationThreshold != 0.7 {
		t.Fatalf("unexpected threshold: %v", cfg.Pipeline.ClassificationThreshold)
	}
	if !cfg.Pipeline.StrictThreshold {
		t.Fatal("expected strict threshold on by default")
	}
	if cfg.Workers.Count != 3 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Priority.Bug.Default != "Medium" {
		t.Fatalf("unexpected bug default priority: %q", cfg.Priority.Bug.Default)
	}
}

func TestLoadAppliesOverridesAndNormalizesKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[pipeline]
classification_threshold = 0.5
strict_threshold = false

[workers]
count = 8

[logging]
format = "JSON"
level = "Debug"

[priority.bug]
default = "High"
critical_keywords = ["  Data Loss ", ""]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Pipeline.ClassificationThreshold != 0.5 || cfg.Pipeline.StrictThreshold {
		t.Fatalf("pipeline overrides not applied: %+v", cfg.Pipeline)
	}
	if cfg.Workers.Count != 8 {
		t.Fatalf("worker override not applied: %d", cfg.Workers.Count)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging values not normalized: %+v", cfg.Logging)
	}
	if cfg.Priority.Bug.Default != "High" {
		t.Fatalf("priority default override not applied: %q", cfg.Priority.Bug.Default)
	}
	if len(cfg.Priority.Bug.CriticalKeywords) != 1 || cfg.Priority.Bug.CriticalKeywords[0] != "data loss" {
		t.Fatalf("keywords not normalized: %v", cfg.Priority.Bug.CriticalKeywords)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "threshold out of range",
			content: "[pipeline]\nclassification_threshold = 1.5\n",
			want:    "classification_threshold",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"\n",
			want:    "logging.format",
		},
		{
			name:    "bad priority default",
			content: "[priority.bug]\ndefault = \"Urgent\"\n",
			want:    "priority.bug",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Paths.APIBind == "" {
		t.Fatal("sample should carry an api bind")
	}
}
