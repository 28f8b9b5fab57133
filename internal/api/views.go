package api

import (
	"time"

	"triage/internal/feedback"
	"triage/internal/metrics"
)

// RunView is the wire representation of a run.
type RunView struct {
	RunID          string  `json:"run_id"`
	Status         string  `json:"status"`
	TotalItems     int     `json:"total_items"`
	CompletedItems int     `json:"completed_items"`
	FallbackItems  int     `json:"fallback_items"`
	Cancelled      bool    `json:"cancelled"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	CreatedAt      string  `json:"created_at"`
	StartedAt      *string `json:"started_at,omitempty"`
	FinishedAt     *string `json:"finished_at,omitempty"`
}

// TicketView is the wire representation of a ticket.
type TicketView struct {
	TicketID         string  `json:"ticket_id"`
	RunID            string  `json:"run_id"`
	SourceID         string  `json:"source_id"`
	Source           string  `json:"source"`
	Title            string  `json:"title"`
	Category         string  `json:"category"`
	Priority         string  `json:"priority"`
	Description      string  `json:"description"`
	TechnicalDetails string  `json:"technical_details,omitempty"`
	Confidence       float64 `json:"confidence"`
	CreatedAt        string  `json:"created_at"`
	Status           string  `json:"status"`
}

// LogEntryView is the wire representation of one processing-log record.
type LogEntryView struct {
	LogID      string   `json:"log_id"`
	RunID      string   `json:"run_id"`
	SourceID   string   `json:"source_id"`
	Stage      string   `json:"stage"`
	Action     string   `json:"action"`
	Result     string   `json:"result"`
	Confidence *float64 `json:"confidence,omitempty"`
	Attempt    int      `json:"attempt"`
	Timestamp  string   `json:"timestamp"`
}

// DaemonStatus summarizes the running daemon for the status endpoint.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DBPath       string `json:"db_path"`
	LockFilePath string `json:"lock_file_path"`
	ActiveRuns   int    `json:"active_runs"`
	TotalRuns    int    `json:"total_runs"`
}

// FromRun converts a domain run to its view.
func FromRun(run *feedback.Run) RunView {
	view := RunView{
		RunID:          run.RunID,
		Status:         string(run.Status),
		TotalItems:     run.TotalItems,
		CompletedItems: run.CompletedItems,
		FallbackItems:  run.FallbackItems,
		Cancelled:      run.Cancelled,
		ErrorMessage:   run.ErrorMessage,
		CreatedAt:      formatTime(run.CreatedAt),
	}
	view.StartedAt = formatOptionalTime(run.StartedAt)
	view.FinishedAt = formatOptionalTime(run.FinishedAt)
	return view
}

// FromRuns converts a run list.
func FromRuns(runs []*feedback.Run) []RunView {
	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, FromRun(run))
	}
	return views
}

// FromTicket converts a domain ticket to its view.
func FromTicket(ticket *feedback.Ticket) TicketView {
	return TicketView{
		TicketID:         ticket.TicketID,
		RunID:            ticket.RunID,
		SourceID:         ticket.SourceID,
		Source:           string(ticket.Source),
		Title:            ticket.Title,
		Category:         string(ticket.Category),
		Priority:         string(ticket.Priority),
		Description:      ticket.Description,
		TechnicalDetails: ticket.TechnicalDetails,
		Confidence:       ticket.Confidence,
		CreatedAt:        formatTime(ticket.CreatedAt),
		Status:           string(ticket.Status),
	}
}

// FromTickets converts a ticket list.
func FromTickets(tickets []*feedback.Ticket) []TicketView {
	views := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		views = append(views, FromTicket(ticket))
	}
	return views
}

// FromLogEntries converts processing-log records.
func FromLogEntries(entries []feedback.LogEntry) []LogEntryView {
	views := make([]LogEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, LogEntryView{
			LogID:      entry.LogID,
			RunID:      entry.RunID,
			SourceID:   entry.SourceID,
			Stage:      entry.Stage,
			Action:     entry.Action,
			Result:     entry.Result,
			Confidence: entry.Confidence,
			Attempt:    entry.Attempt,
			Timestamp:  formatTime(entry.Timestamp),
		})
	}
	return views
}

// ReportView pairs a run with its metrics report.
type ReportView struct {
	Run    RunView         `json:"run"`
	Report *metrics.Report `json:"report,omitempty"`
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func formatOptionalTime(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	formatted := formatTime(*ts)
	return &formatted
}
