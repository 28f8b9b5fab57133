package testsupport

import (
	"path/filepath"
	"testing"

	"triage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Classifier.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workers.Count = count
	}
}

// WithLenientThreshold disables strict confidence gating on the test config.
func WithLenientThreshold() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.StrictThreshold = false
	}
}
