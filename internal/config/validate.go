package config

import (
	"fmt"
	"strings"
)

var validPriorities = map[string]struct{}{
	"Critical": {},
	"High":     {},
	"Medium":   {},
	"Low":      {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("config: paths.log_dir is required")
	}

	if c.Pipeline.ClassificationThreshold < 0 || c.Pipeline.ClassificationThreshold > 1 {
		return fmt.Errorf("config: pipeline.classification_threshold must be within [0,1], got %v",
			c.Pipeline.ClassificationThreshold)
	}

	if c.Workers.Count < 1 {
		return fmt.Errorf("config: workers.count must be at least 1, got %d", c.Workers.Count)
	}

	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("config: logging.format must be console or json, got %q", c.Logging.Format)
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("config: logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}

	for name, tiers := range map[string]KeywordTiers{
		"priority.bug":             c.Priority.Bug,
		"priority.feature_request": c.Priority.FeatureRequest,
		"priority.praise":          c.Priority.Praise,
		"priority.complaint":       c.Priority.Complaint,
		"priority.spam":            c.Priority.Spam,
	} {
		if tiers.Default == "" {
			continue
		}
		if _, ok := validPriorities[tiers.Default]; !ok {
			return fmt.Errorf("config: %s.default must be Critical, High, Medium, or Low, got %q",
				name, tiers.Default)
		}
	}

	return nil
}
