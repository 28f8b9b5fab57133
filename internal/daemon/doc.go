// Package daemon hosts the long-running triage engine: it enforces
// single-instance execution with a lock file and serves the HTTP API that
// accepts batches and reports run state.
package daemon
