package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Classifier contains connection settings for the classification service.
type Classifier struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pipeline contains tuning for the per-item processing pipeline.
type Pipeline struct {
	// ClassificationThreshold is the minimum confidence a classification
	// must carry before the pipeline accepts it.
	ClassificationThreshold float64 `toml:"classification_threshold"`
	// StrictThreshold treats a below-threshold classification as a
	// retryable failure. When false, low-confidence results pass through
	// as valid tickets carrying their reported confidence.
	StrictThreshold bool `toml:"strict_threshold"`
	// DescriptionLimit bounds how much source text fallback ticket
	// descriptions quote.
	DescriptionLimit int `toml:"description_limit"`
}

// Workers contains the concurrency budget for run execution.
type Workers struct {
	Count int `toml:"count"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// KeywordTiers lists escalation keywords for one feedback category.
type KeywordTiers struct {
	Default          string   `toml:"default"`
	CriticalKeywords []string `toml:"critical_keywords"`
	HighKeywords     []string `toml:"high_keywords"`
	MediumKeywords   []string `toml:"medium_keywords"`
	LowKeywords      []string `toml:"low_keywords"`
}

// Priority maps category names to their keyword tiers.
type Priority struct {
	Bug            KeywordTiers `toml:"bug"`
	FeatureRequest KeywordTiers `toml:"feature_request"`
	Praise         KeywordTiers `toml:"praise"`
	Complaint      KeywordTiers `toml:"complaint"`
	Spam           KeywordTiers `toml:"spam"`
}

// Config encapsulates all configuration values for the triage engine.
//
// Configuration sections by subsystem:
//   - Paths: input data directory, log/store directory, API bind address
//   - Classifier: classification service connection settings
//   - Pipeline: confidence threshold behavior and fallback rendering
//   - Workers: concurrent worker budget per run
//   - Priority: per-category keyword escalation rules
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Classifier Classifier `toml:"classifier"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Workers    Workers    `toml:"workers"`
	Priority   Priority   `toml:"priority"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/triage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("triage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
