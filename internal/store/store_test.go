package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"triage/internal/feedback"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "triage.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTicket(runID, sourceID string, status feedback.TicketStatus) feedback.Ticket {
	category := feedback.CategoryBug
	if status == feedback.TicketFallback {
		category = feedback.CategoryFailed
	}
	return feedback.Ticket{
		TicketID:    "tk-" + sourceID,
		RunID:       runID,
		SourceID:    sourceID,
		Source:      feedback.SourceReview,
		Title:       "[Bug] something broke",
		Category:    category,
		Priority:    feedback.PriorityMedium,
		Description: "it broke",
		Confidence:  0.8,
		CreatedAt:   time.Now().UTC(),
		Status:      status,
	}
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "run-1", 5)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.Status != feedback.RunPending || run.TotalItems != 5 {
		t.Fatalf("unexpected run: %+v", run)
	}

	if err := s.StartRun(ctx, "run-1"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != feedback.RunRunning || run.StartedAt == nil {
		t.Fatalf("run not running: %+v", run)
	}

	if err := s.FinishRun(ctx, "run-1", feedback.RunCompleted, ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != feedback.RunCompleted || run.FinishedAt == nil {
		t.Fatalf("run not completed: %+v", run)
	}
}

func TestFinishRunRejectsNonTerminalStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 1); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.FinishRun(ctx, "run-1", feedback.RunRunning, ""); err == nil {
		t.Fatal("expected rejection of non-terminal status")
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordOutcomeBumpsCounters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 2); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	confidence := 0.8
	entries := []feedback.LogEntry{{
		LogID:      "log-1",
		RunID:      "run-1",
		SourceID:   "a",
		Stage:      "review",
		Action:     "process",
		Result:     "success",
		Confidence: &confidence,
		Attempt:    1,
		Timestamp:  time.Now().UTC(),
	}}
	if err := s.RecordOutcome(ctx, sampleTicket("run-1", "a", feedback.TicketSuccess), entries); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := s.RecordOutcome(ctx, sampleTicket("run-1", "b", feedback.TicketFallback), nil); err != nil {
		t.Fatalf("RecordOutcome fallback: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.CompletedItems != 2 || run.FallbackItems != 1 {
		t.Fatalf("counters wrong: %+v", run)
	}

	logEntries, err := s.LogForSource(ctx, "run-1", "a")
	if err != nil {
		t.Fatalf("LogForSource: %v", err)
	}
	if len(logEntries) != 1 || logEntries[0].Result != "success" {
		t.Fatalf("log entries = %+v", logEntries)
	}
	if logEntries[0].Confidence == nil || *logEntries[0].Confidence != 0.8 {
		t.Fatalf("log confidence = %v, want 0.8", logEntries[0].Confidence)
	}
}

func TestRecordOutcomeRejectsDuplicateSource(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 2); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if err := s.RecordOutcome(ctx, sampleTicket("run-1", "a", feedback.TicketSuccess), nil); err != nil {
		t.Fatalf("first RecordOutcome: %v", err)
	}
	dup := sampleTicket("run-1", "a", feedback.TicketSuccess)
	dup.TicketID = "tk-a2"
	if err := s.RecordOutcome(ctx, dup, nil); err == nil {
		t.Fatal("expected unique constraint violation for duplicate source")
	}

	// The failed transaction must not have bumped the counters.
	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.CompletedItems != 1 {
		t.Fatalf("completed = %d, want 1", run.CompletedItems)
	}
}

func TestHasTicket(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 1); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.RecordOutcome(ctx, sampleTicket("run-1", "a", feedback.TicketSuccess), nil); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	got, err := s.HasTicket(ctx, "run-1", "a")
	if err != nil || !got {
		t.Fatalf("HasTicket(a) = %v, %v; want true", got, err)
	}
	got, err = s.HasTicket(ctx, "run-1", "b")
	if err != nil || got {
		t.Fatalf("HasTicket(b) = %v, %v; want false", got, err)
	}
}

func TestListTicketsFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 3); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	bug := sampleTicket("run-1", "a", feedback.TicketSuccess)
	praise := sampleTicket("run-1", "b", feedback.TicketSuccess)
	praise.Category = feedback.CategoryPraise
	praise.Priority = feedback.PriorityLow
	fallback := sampleTicket("run-1", "c", feedback.TicketFallback)
	for _, ticket := range []feedback.Ticket{bug, praise, fallback} {
		if err := s.RecordOutcome(ctx, ticket, nil); err != nil {
			t.Fatalf("RecordOutcome(%s): %v", ticket.SourceID, err)
		}
	}

	got, err := s.ListTickets(ctx, TicketFilter{RunID: "run-1", Category: feedback.CategoryPraise})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(got) != 1 || got[0].SourceID != "b" {
		t.Fatalf("category filter returned %+v", got)
	}

	got, err = s.ListTickets(ctx, TicketFilter{Status: feedback.TicketFallback})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(got) != 1 || got[0].SourceID != "c" {
		t.Fatalf("status filter returned %+v", got)
	}

	got, err = s.ListTickets(ctx, TicketFilter{RunID: "run-1", Limit: 2})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit filter returned %d tickets, want 2", len(got))
	}
}

func TestMetricsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 1); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	type payload struct {
		Total int     `json:"total"`
		Avg   float64 `json:"avg"`
	}
	if err := s.SaveMetrics(ctx, "run-1", payload{Total: 3, Avg: 0.82}); err != nil {
		t.Fatalf("SaveMetrics: %v", err)
	}
	// Overwrite is allowed.
	if err := s.SaveMetrics(ctx, "run-1", payload{Total: 3, Avg: 0.9}); err != nil {
		t.Fatalf("SaveMetrics overwrite: %v", err)
	}

	var got payload
	if err := s.GetMetrics(ctx, "run-1", &got); err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if got.Total != 3 || got.Avg != 0.9 {
		t.Fatalf("metrics = %+v", got)
	}

	if err := s.GetMetrics(ctx, "run-2", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkRunCancelled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateRun(ctx, "run-1", 1); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.MarkRunCancelled(ctx, "run-1"); err != nil {
		t.Fatalf("MarkRunCancelled: %v", err)
	}
	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !run.Cancelled {
		t.Fatal("run should be flagged cancelled")
	}
	if run.Status.Terminal() {
		t.Fatal("cancellation flag must not terminate the run by itself")
	}
}
