// Package config loads, validates, and normalizes the TOML configuration for
// the triage engine: directories and API bind address, classifier connection
// settings, pipeline thresholds, worker budget, priority keyword rules, and
// logging options.
package config
