package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"triage/internal/feedback"
)

// TicketFilter narrows ListTickets. Zero values mean "any".
type TicketFilter struct {
	RunID    string
	Category feedback.Category
	Priority feedback.Priority
	Status   feedback.TicketStatus
	Limit    int
}

// ListTickets returns tickets matching the filter, newest first.
func (s *Store) ListTickets(ctx context.Context, filter TicketFilter) ([]*feedback.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var (
		clauses []string
		args    []any
	)
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*feedback.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// GetTicket returns one ticket by ID.
func (s *Store) GetTicket(ctx context.Context, ticketID string) (*feedback.Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = ?`, ticketID)
	ticket, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// TicketsForRun returns every ticket a run produced, oldest first.
func (s *Store) TicketsForRun(ctx context.Context, runID string) ([]feedback.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE run_id = ? ORDER BY created_at ASC, ticket_id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("tickets for run: %w", err)
	}
	defer rows.Close()

	var tickets []feedback.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}
