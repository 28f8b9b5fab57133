package store

import (
	"context"
	"database/sql"
	"fmt"

	"triage/internal/feedback"
)

// LogForSource returns the processing-log entries for one item within a run,
// in the order they were recorded.
func (s *Store) LogForSource(ctx context.Context, runID, sourceID string) ([]feedback.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT log_id, run_id, source_id, stage, action, result, confidence, attempt, timestamp
         FROM processing_log
         WHERE run_id = ? AND source_id = ?
         ORDER BY timestamp ASC, log_id ASC`,
		runID, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("log for source: %w", err)
	}
	defer rows.Close()

	var entries []feedback.LogEntry
	for rows.Next() {
		var (
			entry        feedback.LogEntry
			confidence   sql.NullFloat64
			timestampRaw string
		)
		if err := rows.Scan(&entry.LogID, &entry.RunID, &entry.SourceID, &entry.Stage,
			&entry.Action, &entry.Result, &confidence, &entry.Attempt, &timestampRaw); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if confidence.Valid {
			v := confidence.Float64
			entry.Confidence = &v
		}
		if entry.Timestamp, err = parseTimestamp(timestampRaw); err != nil {
			return nil, fmt.Errorf("log entry %s: %w", entry.LogID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
