package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"triage/internal/feedback"
	"triage/internal/metrics"
	"triage/internal/store"
)

// Service exposes read operations over the store for handlers and the CLI.
type Service struct {
	store *store.Store
}

// NewService wraps a store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Runs lists runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]RunView, error) {
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromRuns(runs), nil
}

// Run returns one run.
func (s *Service) Run(ctx context.Context, runID string) (RunView, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return RunView{}, err
	}
	return FromRun(run), nil
}

// TicketQuery holds the raw ticket filter parameters as strings, the way
// they arrive from query parameters or CLI flags.
type TicketQuery struct {
	RunID    string
	Category string
	Priority string
	Status   string
	Limit    int
}

// Tickets lists tickets matching the query. Unknown filter values are
// rejected rather than silently matching nothing.
func (s *Service) Tickets(ctx context.Context, query TicketQuery) ([]TicketView, error) {
	filter := store.TicketFilter{RunID: strings.TrimSpace(query.RunID), Limit: query.Limit}

	if raw := strings.TrimSpace(query.Category); raw != "" {
		category, ok := feedback.ParseCategory(raw)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", raw)
		}
		filter.Category = category
	}
	if raw := strings.TrimSpace(query.Priority); raw != "" {
		priority, ok := feedback.ParsePriority(raw)
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", raw)
		}
		filter.Priority = priority
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		switch feedback.TicketStatus(strings.ToLower(raw)) {
		case feedback.TicketSuccess:
			filter.Status = feedback.TicketSuccess
		case feedback.TicketFallback:
			filter.Status = feedback.TicketFallback
		default:
			return nil, fmt.Errorf("unknown ticket status %q", raw)
		}
	}

	tickets, err := s.store.ListTickets(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromTickets(tickets), nil
}

// Ticket returns one ticket.
func (s *Service) Ticket(ctx context.Context, ticketID string) (TicketView, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return TicketView{}, err
	}
	return FromTicket(ticket), nil
}

// Log returns the processing-log trail for one item within a run.
func (s *Service) Log(ctx context.Context, runID, sourceID string) ([]LogEntryView, error) {
	entries, err := s.store.LogForSource(ctx, runID, sourceID)
	if err != nil {
		return nil, err
	}
	return FromLogEntries(entries), nil
}

// Metrics returns the stored metrics report for a run. A run without
// metrics yet (still running) returns a nil report rather than an error.
func (s *Service) Metrics(ctx context.Context, runID string) (*metrics.Report, error) {
	var report metrics.Report
	err := s.store.GetMetrics(ctx, runID, &report)
	if errors.Is(err, store.ErrNotFound) {
		if _, runErr := s.store.GetRun(ctx, runID); runErr != nil {
			return nil, runErr
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Report combines the run snapshot with its metrics for report rendering.
func (s *Service) Report(ctx context.Context, runID string) (ReportView, error) {
	run, err := s.Run(ctx, runID)
	if err != nil {
		return ReportView{}, err
	}
	report, err := s.Metrics(ctx, runID)
	if err != nil {
		return ReportView{}, err
	}
	return ReportView{Run: run, Report: report}, nil
}
