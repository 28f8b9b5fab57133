// Package runner is the job controller: it validates batches, owns run
// lifecycle state, fans items out to a bounded worker pool, and finalizes
// run metrics. Workers only touch shared state through the store's
// single-transaction outcome path.
package runner
