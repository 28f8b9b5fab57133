package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SaveMetrics stores the JSON-encoded metrics payload for a run, replacing
// any previous payload. Metrics are recomputable, so overwrite is safe.
func (s *Store) SaveMetrics(ctx context.Context, runID string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	now := time.Now().UTC().Format(timestampFormat)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_metrics (run_id, payload, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		runID, string(encoded), now,
	)
	if err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

// GetMetrics decodes the stored metrics payload for a run into target.
func (s *Store) GetMetrics(ctx context.Context, runID string, target any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM run_metrics WHERE run_id = ?`, runID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("metrics for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return fmt.Errorf("decode metrics: %w", err)
	}
	return nil
}
