// Package ingest loads feedback items and ground-truth labels from CSV
// files. Malformed rows are skipped and counted rather than failing the
// whole file; a triage batch should not die because one row lost a column.
package ingest
