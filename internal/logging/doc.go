// Package logging wires log/slog with the handlers and attribute helpers the
// engine uses everywhere: a human-oriented console handler for interactive
// use, a JSON handler for machine consumption, and context-derived fields so
// every record carries its run, item, and stage.
package logging
