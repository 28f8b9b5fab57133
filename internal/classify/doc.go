// Package classify declares the external capability ports the pipeline
// consumes: text classification and category-specific specialization. The
// engine never implements classification semantics itself; adapters under
// internal/services provide concrete backends, and tests substitute stubs.
package classify
