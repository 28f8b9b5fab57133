package metrics

import (
	"testing"
	"time"

	"triage/internal/feedback"
)

func ticket(sourceID string, category feedback.Category, status feedback.TicketStatus, confidence float64) feedback.Ticket {
	return feedback.Ticket{
		TicketID:   "tk-" + sourceID,
		RunID:      "run-1",
		SourceID:   sourceID,
		Category:   category,
		Priority:   feedback.PriorityMedium,
		Status:     status,
		Confidence: confidence,
	}
}

func TestSummarizeCountsAndAverages(t *testing.T) {
	tickets := []feedback.Ticket{
		ticket("a", feedback.CategoryBug, feedback.TicketSuccess, 0.9),
		ticket("b", feedback.CategoryBug, feedback.TicketSuccess, 0.7),
		ticket("c", feedback.CategoryPraise, feedback.TicketSuccess, 0.8),
		ticket("d", feedback.CategoryFailed, feedback.TicketFallback, 0.0),
	}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)

	s := Summarize("run-1", tickets, started, finished)

	if s.TotalTickets != 4 || s.SuccessCount != 3 || s.FallbackCount != 1 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if s.CategoryCounts[feedback.CategoryBug] != 2 {
		t.Errorf("bug count = %d, want 2", s.CategoryCounts[feedback.CategoryBug])
	}
	if s.AverageConfidence == nil {
		t.Fatal("average confidence should be defined")
	}
	want := (0.9 + 0.7 + 0.8) / 3
	if diff := *s.AverageConfidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("average confidence = %v, want %v", *s.AverageConfidence, want)
	}
	if s.ProcessingSeconds != 90 {
		t.Errorf("processing seconds = %v, want 90", s.ProcessingSeconds)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	tickets := []feedback.Ticket{
		ticket("a", feedback.CategoryBug, feedback.TicketSuccess, 0.9),
		ticket("b", feedback.CategoryFailed, feedback.TicketFallback, 0.0),
	}
	started := time.Now()
	finished := started.Add(time.Second)

	first := Summarize("run-1", tickets, started, finished)
	second := Summarize("run-1", tickets, started, finished)

	if first.TotalTickets != second.TotalTickets ||
		first.SuccessCount != second.SuccessCount ||
		first.FallbackCount != second.FallbackCount ||
		*first.AverageConfidence != *second.AverageConfidence ||
		first.ProcessingSeconds != second.ProcessingSeconds {
		t.Fatalf("recompute changed results: %+v vs %+v", first, second)
	}
}

func TestSummarizeAllFallbacksHasUndefinedConfidence(t *testing.T) {
	tickets := []feedback.Ticket{
		ticket("a", feedback.CategoryFailed, feedback.TicketFallback, 0.0),
	}
	s := Summarize("run-1", tickets, time.Time{}, time.Time{})
	if s.AverageConfidence != nil {
		t.Errorf("average confidence = %v, want nil", *s.AverageConfidence)
	}
}

func TestEvaluateConfusionMatrix(t *testing.T) {
	tickets := []feedback.Ticket{
		ticket("a", feedback.CategoryBug, feedback.TicketSuccess, 0.9),
		ticket("b", feedback.CategoryBug, feedback.TicketSuccess, 0.9),
		ticket("c", feedback.CategoryBug, feedback.TicketSuccess, 0.9),
	}
	expected := []Expected{
		{SourceID: "a", Category: feedback.CategoryBug},
		{SourceID: "b", Category: feedback.CategoryBug},
		{SourceID: "c", Category: feedback.CategoryFeatureRequest},
	}

	ev := Evaluate(tickets, expected)

	if ev.TotalCompared != 3 || ev.Correct != 2 {
		t.Fatalf("compared=%d correct=%d, want 3/2", ev.TotalCompared, ev.Correct)
	}
	if ev.Accuracy == nil || !almost(*ev.Accuracy, 2.0/3.0) {
		t.Errorf("accuracy = %v, want 2/3", ev.Accuracy)
	}
	if got := ev.Confusion[feedback.CategoryFeatureRequest][feedback.CategoryBug]; got != 1 {
		t.Errorf("confusion[FeatureRequest][Bug] = %d, want 1", got)
	}
	if got := ev.Confusion[feedback.CategoryBug][feedback.CategoryBug]; got != 2 {
		t.Errorf("confusion[Bug][Bug] = %d, want 2", got)
	}

	bug := ev.PerCategory[feedback.CategoryBug]
	if bug.Recall == nil || *bug.Recall != 1.0 {
		t.Errorf("bug recall = %v, want 1.0", bug.Recall)
	}
	if bug.Precision == nil || !almost(*bug.Precision, 2.0/3.0) {
		t.Errorf("bug precision = %v, want 2/3", bug.Precision)
	}

	feature := ev.PerCategory[feedback.CategoryFeatureRequest]
	if feature.Recall == nil || *feature.Recall != 0.0 {
		t.Errorf("feature recall = %v, want 0.0", feature.Recall)
	}
	// Nothing was predicted as Feature Request, so precision is undefined.
	if feature.Precision != nil {
		t.Errorf("feature precision = %v, want nil", *feature.Precision)
	}
}

func TestEvaluateEmptyInputsAreUndefined(t *testing.T) {
	ev := Evaluate(nil, nil)
	if ev.Accuracy != nil {
		t.Errorf("accuracy = %v, want nil", *ev.Accuracy)
	}
	if ev.TotalCompared != 0 {
		t.Errorf("compared = %d, want 0", ev.TotalCompared)
	}
}

func TestEvaluateTracksUnmatched(t *testing.T) {
	tickets := []feedback.Ticket{
		ticket("a", feedback.CategoryBug, feedback.TicketSuccess, 0.9),
		ticket("z", feedback.CategoryPraise, feedback.TicketSuccess, 0.9),
	}
	expected := []Expected{
		{SourceID: "a", Category: feedback.CategoryBug},
		{SourceID: "m", Category: feedback.CategorySpam},
	}

	ev := Evaluate(tickets, expected)

	if len(ev.UnmatchedTickets) != 1 || ev.UnmatchedTickets[0] != "z" {
		t.Errorf("unmatched tickets = %v, want [z]", ev.UnmatchedTickets)
	}
	if len(ev.UnmatchedExpected) != 1 || ev.UnmatchedExpected[0] != "m" {
		t.Errorf("unmatched expected = %v, want [m]", ev.UnmatchedExpected)
	}
	if ev.TotalCompared != 1 {
		t.Errorf("compared = %d, want 1", ev.TotalCompared)
	}
}

func TestEvaluateFallbackCountsAsMiss(t *testing.T) {
	tickets := []feedback.Ticket{
		ticket("a", feedback.CategoryFailed, feedback.TicketFallback, 0.0),
	}
	expected := []Expected{{SourceID: "a", Category: feedback.CategoryBug}}

	ev := Evaluate(tickets, expected)
	if ev.Accuracy == nil || *ev.Accuracy != 0.0 {
		t.Errorf("accuracy = %v, want 0.0", ev.Accuracy)
	}
	if got := ev.Confusion[feedback.CategoryBug][feedback.CategoryFailed]; got != 1 {
		t.Errorf("confusion[Bug][Failed] = %d, want 1", got)
	}
}

func almost(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}
