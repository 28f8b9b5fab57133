// Package metrics computes run summaries and classification quality scores.
// All functions are pure: same tickets in, same numbers out, so recomputing
// metrics for a finished run is always safe.
package metrics
