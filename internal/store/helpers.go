package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"triage/internal/feedback"
)

const runColumns = "run_id, status, total_items, completed_items, fallback_items, cancelled, error_message, created_at, started_at, finished_at"

const ticketColumns = "ticket_id, run_id, source_id, source, title, category, priority, description, technical_details, confidence, created_at, status"

type rowScanner interface{ Scan(dest ...any) error }

func scanRun(scanner rowScanner) (*feedback.Run, error) {
	var (
		runID        string
		statusStr    string
		totalItems   int
		completed    int
		fallback     int
		cancelled    int
		errorMessage sql.NullString
		createdRaw   string
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(&runID, &statusStr, &totalItems, &completed, &fallback,
		&cancelled, &errorMessage, &createdRaw, &startedRaw, &finishedRaw); err != nil {
		return nil, err
	}

	status, ok := feedback.ParseRunStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("run %s: unknown status %q", runID, statusStr)
	}
	created, err := parseTimestamp(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	run := &feedback.Run{
		RunID:          runID,
		Status:         status,
		TotalItems:     totalItems,
		CompletedItems: completed,
		FallbackItems:  fallback,
		Cancelled:      cancelled != 0,
		ErrorMessage:   errorMessage.String,
		CreatedAt:      created,
	}
	if run.StartedAt, err = parseOptionalTimestamp(startedRaw); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if run.FinishedAt, err = parseOptionalTimestamp(finishedRaw); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return run, nil
}

func scanTicket(scanner rowScanner) (*feedback.Ticket, error) {
	var (
		ticketID   string
		runID      string
		sourceID   string
		sourceStr  string
		title      string
		category   string
		priority   string
		desc       string
		details    sql.NullString
		confidence float64
		createdRaw string
		statusStr  string
	)
	if err := scanner.Scan(&ticketID, &runID, &sourceID, &sourceStr, &title,
		&category, &priority, &desc, &details, &confidence, &createdRaw, &statusStr); err != nil {
		return nil, err
	}

	created, err := parseTimestamp(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, err)
	}

	return &feedback.Ticket{
		TicketID:         ticketID,
		RunID:            runID,
		SourceID:         sourceID,
		Source:           feedback.SourceType(sourceStr),
		Title:            title,
		Category:         feedback.Category(category),
		Priority:         feedback.Priority(priority),
		Description:      desc,
		TechnicalDetails: details.String,
		Confidence:       confidence,
		CreatedAt:        created,
		Status:           feedback.TicketStatus(statusStr),
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(timestampFormat, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return ts, nil
}

func parseOptionalTimestamp(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}
	ts, err := parseTimestamp(raw.String)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
