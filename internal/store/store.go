package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"triage/internal/config"
	"triage/internal/feedback"
)

// ErrNotFound indicates the requested run or ticket does not exist.
var ErrNotFound = errors.New("not found")

const timestampFormat = time.RFC3339Nano

// Store manages engine persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the triage database and verifies its
// schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "triage.db"))
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	// Pragmas go in the DSN so they apply to every pooled connection, not
	// just the one a PRAGMA statement happens to run on.
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CreateRun inserts a new run in pending state.
func (s *Store) CreateRun(ctx context.Context, runID string, totalItems int) (*feedback.Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, status, total_items, created_at) VALUES (?, ?, ?, ?)`,
		runID, string(feedback.RunPending), totalItems, now.Format(timestampFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, runID)
}

// StartRun transitions a run to running and stamps its start time.
func (s *Store) StartRun(ctx context.Context, runID string) error {
	now := time.Now().UTC().Format(timestampFormat)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, started_at = ? WHERE run_id = ? AND status = ?`,
		string(feedback.RunRunning), now, runID, string(feedback.RunPending),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return requireRowAffected(res, runID)
}

// FinishRun transitions a run to a terminal state.
func (s *Store) FinishRun(ctx context.Context, runID string, status feedback.RunStatus, errorMessage string) error {
	if !status.Terminal() {
		return fmt.Errorf("finish run %s: %q is not a terminal status", runID, status)
	}
	now := time.Now().UTC().Format(timestampFormat)
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE run_id = ?`,
		string(status), nullableString(errorMessage), now, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireRowAffected(res, runID)
}

// MarkRunCancelled records the cooperative cancellation flag. The run keeps
// running until in-flight items drain; completion later moves it to a
// terminal state.
func (s *Store) MarkRunCancelled(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET cancelled = 1 WHERE run_id = ?`, runID,
	)
	if err != nil {
		return fmt.Errorf("mark run cancelled: %w", err)
	}
	return requireRowAffected(res, runID)
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*feedback.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first, up to limit (0 means no limit).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*feedback.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*feedback.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordOutcome persists one item's finished ticket and its processing-log
// entries and bumps the run counters, all in a single transaction. This is
// the only write path for per-item results, which keeps the run counters and
// the ticket table consistent under concurrent workers.
func (s *Store) RecordOutcome(ctx context.Context, ticket feedback.Ticket, entries []feedback.LogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outcome tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tickets (
            ticket_id, run_id, source_id, source, title, category, priority,
            description, technical_details, confidence, created_at, status
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ticket.TicketID, ticket.RunID, ticket.SourceID, string(ticket.Source),
		ticket.Title, string(ticket.Category), string(ticket.Priority),
		ticket.Description, nullableString(ticket.TechnicalDetails),
		ticket.Confidence, ticket.CreatedAt.UTC().Format(timestampFormat),
		string(ticket.Status),
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	for _, entry := range entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO processing_log (
                log_id, run_id, source_id, stage, action, result, confidence, attempt, timestamp
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.LogID, entry.RunID, entry.SourceID, entry.Stage, entry.Action,
			entry.Result, nullableFloat(entry.Confidence), entry.Attempt,
			entry.Timestamp.UTC().Format(timestampFormat),
		)
		if err != nil {
			return fmt.Errorf("insert log entry: %w", err)
		}
	}

	fallbackDelta := 0
	if ticket.Status == feedback.TicketFallback {
		fallbackDelta = 1
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET completed_items = completed_items + 1,
                         fallback_items = fallback_items + ?
         WHERE run_id = ?`,
		fallbackDelta, ticket.RunID,
	)
	if err != nil {
		return fmt.Errorf("bump run counters: %w", err)
	}
	if err := requireRowAffected(res, ticket.RunID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outcome: %w", err)
	}
	return nil
}

// HasTicket reports whether a ticket already exists for the run and source.
func (s *Store) HasTicket(ctx context.Context, runID, sourceID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM tickets WHERE run_id = ? AND source_id = ?`,
		runID, sourceID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check ticket: %w", err)
	}
	return count > 0, nil
}

func requireRowAffected(res sql.Result, runID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}
