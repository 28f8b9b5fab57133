// Package api provides the read-side service and wire views shared by the
// daemon's HTTP handlers and the CLI. Views are flat JSON-friendly structs;
// domain types stay inside the engine.
package api
