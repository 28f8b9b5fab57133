// Package pipeline implements the per-item processing pipeline: an ordered
// sequence of classify, specialize, compose, and review stages, wrapped in a
// bounded-retry processor that degrades to a deterministic fallback ticket
// instead of failing. One invocation handles exactly one feedback item.
package pipeline
