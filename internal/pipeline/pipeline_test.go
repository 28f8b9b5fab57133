package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"triage/internal/classify"
	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/services"
)

type stubAnalyzer struct {
	bug     classify.BugAnalysis
	feature classify.FeatureAnalysis
	bugErr  error
}

func (s stubAnalyzer) AnalyzeBug(ctx context.Context, text string) (classify.BugAnalysis, error) {
	return s.bug, s.bugErr
}

func (s stubAnalyzer) AnalyzeFeature(ctx context.Context, text string) (classify.FeatureAnalysis, error) {
	return s.feature, nil
}

func fixedClassifier(category feedback.Category, confidence float64) classify.Classifier {
	return classify.ClassifierFunc(func(ctx context.Context, req classify.Request) (classify.Outcome, error) {
		return classify.Outcome{Category: category, Confidence: confidence, Reasoning: "stub"}, nil
	})
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func newTestPipeline(t *testing.T, classifier classify.Classifier, analyzer classify.Analyzer) *Pipeline {
	t.Helper()
	return New(testConfig(), classifier, analyzer, logging.NewNop())
}

func TestRunProducesSuccessTicket(t *testing.T) {
	analyzer := stubAnalyzer{bug: classify.BugAnalysis{
		Platform:              "iOS",
		Severity:              classify.SeverityHigh,
		AffectedFunctionality: "sync engine",
	}}
	p := newTestPipeline(t, fixedClassifier(feedback.CategoryBug, 0.93), analyzer)

	item := feedback.Item{ID: "rev-1", Source: feedback.SourceReview, Text: "App crashes every time I open it"}
	ticket, err := p.Run(context.Background(), "run-1", item, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ticket.Category != feedback.CategoryBug {
		t.Errorf("category = %s, want Bug", ticket.Category)
	}
	if ticket.Status != feedback.TicketSuccess {
		t.Errorf("status = %s, want success", ticket.Status)
	}
	if ticket.SourceID != "rev-1" || ticket.RunID != "run-1" {
		t.Errorf("ticket identity wrong: %+v", ticket)
	}
	if !strings.HasPrefix(ticket.Title, "[Bug] ") {
		t.Errorf("title = %q, want [Bug] prefix", ticket.Title)
	}
	if !strings.Contains(ticket.TechnicalDetails, "Platform: iOS") {
		t.Errorf("technical details missing analysis: %q", ticket.TechnicalDetails)
	}
	if ticket.Confidence != 0.93 {
		t.Errorf("confidence = %v, want 0.93", ticket.Confidence)
	}
}

func TestRunStrictThresholdRejectsLowConfidence(t *testing.T) {
	p := newTestPipeline(t, fixedClassifier(feedback.CategoryBug, 0.4), nil)

	item := feedback.Item{ID: "rev-2", Source: feedback.SourceReview, Text: "it broke, maybe"}
	_, err := p.Run(context.Background(), "run-1", item, nil)
	if err == nil {
		t.Fatal("expected threshold rejection")
	}
	if services.Kind(err) != "classification" {
		t.Errorf("error kind = %s, want classification", services.Kind(err))
	}
	if !services.Retryable(err) {
		t.Error("threshold rejection should be retryable")
	}
}

func TestRunThresholdExemptsPraiseAndSpam(t *testing.T) {
	cases := []struct {
		name       string
		category   feedback.Category
		confidence float64
	}{
		{"praise", feedback.CategoryPraise, 0.4},
		{"spam", feedback.CategorySpam, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPipeline(t, fixedClassifier(tc.category, tc.confidence), nil)

			item := feedback.Item{ID: "rev-3", Source: feedback.SourceReview, Text: "nice"}
			ticket, err := p.Run(context.Background(), "run-1", item, nil)
			if err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			if ticket.Category != tc.category {
				t.Errorf("category = %s, want %s", ticket.Category, tc.category)
			}
			if ticket.Confidence != tc.confidence {
				t.Errorf("confidence = %v, want %v", ticket.Confidence, tc.confidence)
			}
		})
	}
}

func TestRunLenientThresholdPassesLowConfidence(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.StrictThreshold = false
	p := New(cfg, fixedClassifier(feedback.CategoryBug, 0.4), nil, logging.NewNop())

	item := feedback.Item{ID: "rev-4", Source: feedback.SourceReview, Text: "screen flickers sometimes"}
	ticket, err := p.Run(context.Background(), "run-1", item, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if ticket.Confidence != 0.4 {
		t.Errorf("confidence = %v, want the reported 0.4", ticket.Confidence)
	}
}

func TestReviewRejectsDuplicateSource(t *testing.T) {
	p := newTestPipeline(t, fixedClassifier(feedback.CategoryPraise, 0.9), nil)

	item := feedback.Item{ID: "rev-4", Source: feedback.SourceReview, Text: "Fantastic app"}
	seen := func(sourceID string) bool { return sourceID == "rev-4" }
	_, err := p.Run(context.Background(), "run-1", item, seen)
	if err == nil {
		t.Fatal("expected duplicate rejection")
	}
	if services.Retryable(err) {
		t.Error("duplicate rejection must not be retryable")
	}
}

func TestAssignPriorityKeywordEscalation(t *testing.T) {
	rules := NewPriorityRules(testConfig().Priority)

	cases := []struct {
		name     string
		category feedback.Category
		text     string
		want     feedback.Priority
	}{
		{"bug default", feedback.CategoryBug, "something odd happens sometimes", feedback.PriorityMedium},
		{"bug high keyword", feedback.CategoryBug, "The app crashes when I rotate", feedback.PriorityHigh},
		{"bug critical keyword", feedback.CategoryBug, "Complete data loss after update", feedback.PriorityCritical},
		{"critical beats high", feedback.CategoryBug, "crash caused data loss", feedback.PriorityCritical},
		{"low keyword cannot demote default", feedback.CategoryBug, "minor typo in settings", feedback.PriorityMedium},
		{"feature default low", feedback.CategoryFeatureRequest, "please add widgets", feedback.PriorityLow},
		{"feature medium keyword", feedback.CategoryFeatureRequest, "need calendar integration", feedback.PriorityMedium},
		{"complaint billing", feedback.CategoryComplaint, "I got a duplicate charge this month", feedback.PriorityHigh},
		{"praise always low", feedback.CategoryPraise, "crash course in excellence", feedback.PriorityLow},
		{"keyword match is case-insensitive", feedback.CategoryBug, "CRASHES constantly", feedback.PriorityHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.Assign(tc.category, tc.text); got != tc.want {
				t.Errorf("Assign(%s, %q) = %s, want %s", tc.category, tc.text, got, tc.want)
			}
		})
	}
}

func TestProcessRetriesThenFallsBack(t *testing.T) {
	calls := 0
	failing := classify.ClassifierFunc(func(ctx context.Context, req classify.Request) (classify.Outcome, error) {
		calls++
		return classify.Outcome{}, services.Wrap(services.ErrClassification, "classify", "complete", "backend down", nil)
	})
	cfg := testConfig()
	p := New(cfg, failing, nil, logging.NewNop())
	pr := NewProcessor(cfg, p, logging.NewNop())

	item := feedback.Item{ID: "rev-9", Source: feedback.SourceReview, Text: strings.Repeat("broken ", 100)}
	start := time.Now()
	res := pr.Process(context.Background(), "run-1", item, nil)

	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("retries took %v, want them back to back", elapsed)
	}
	if calls != MaxAttempts {
		t.Errorf("classifier called %d times, want %d", calls, MaxAttempts)
	}
	if res.Attempts != MaxAttempts {
		t.Errorf("attempts = %d, want %d", res.Attempts, MaxAttempts)
	}
	ticket := res.Ticket
	if ticket.Status != feedback.TicketFallback {
		t.Errorf("status = %s, want fallback", ticket.Status)
	}
	if ticket.Category != feedback.CategoryFailed {
		t.Errorf("category = %s, want Failed", ticket.Category)
	}
	if ticket.Priority != feedback.PriorityMedium {
		t.Errorf("priority = %s, want Medium", ticket.Priority)
	}
	if ticket.Confidence != 0.0 {
		t.Errorf("confidence = %v, want 0.0", ticket.Confidence)
	}
	want := "[Failed] Manual review required - rev-9"
	if ticket.Title != want {
		t.Errorf("title = %q, want %q", ticket.Title, want)
	}
	if len(ticket.Description) > cfg.Pipeline.DescriptionLimit+3 {
		t.Errorf("description length %d exceeds limit", len(ticket.Description))
	}
	if !strings.Contains(ticket.TechnicalDetails, "error=classification") {
		t.Errorf("technical details = %q, want error kind", ticket.TechnicalDetails)
	}
	if !strings.Contains(ticket.TechnicalDetails, "attempts=3") {
		t.Errorf("technical details = %q, want attempt count", ticket.TechnicalDetails)
	}
}

func TestProcessDoesNotRetryValidationFailures(t *testing.T) {
	calls := 0
	failing := classify.ClassifierFunc(func(ctx context.Context, req classify.Request) (classify.Outcome, error) {
		calls++
		return classify.Outcome{}, services.Wrap(services.ErrValidation, "classify", "request", "bad item", nil)
	})
	cfg := testConfig()
	pr := NewProcessor(cfg, New(cfg, failing, nil, logging.NewNop()), logging.NewNop())

	item := feedback.Item{ID: "rev-10", Source: feedback.SourceEmail, Text: "hello"}
	res := pr.Process(context.Background(), "run-1", item, nil)

	if calls != 1 {
		t.Errorf("classifier called %d times, want 1", calls)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if !strings.Contains(res.Ticket.TechnicalDetails, "attempts=1") {
		t.Errorf("technical details = %q, want single attempt", res.Ticket.TechnicalDetails)
	}
	if res.Ticket.Status != feedback.TicketFallback {
		t.Errorf("status = %s, want fallback", res.Ticket.Status)
	}
}

func TestProcessSucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	flaky := classify.ClassifierFunc(func(ctx context.Context, req classify.Request) (classify.Outcome, error) {
		calls++
		if calls < 3 {
			return classify.Outcome{}, services.Wrap(services.ErrTimeout, "classify", "complete", "deadline", nil)
		}
		return classify.Outcome{Category: feedback.CategoryPraise, Confidence: 0.95}, nil
	})
	cfg := testConfig()
	pr := NewProcessor(cfg, New(cfg, flaky, nil, logging.NewNop()), logging.NewNop())

	item := feedback.Item{ID: "rev-11", Source: feedback.SourceReview, Text: "Great experience overall"}
	res := pr.Process(context.Background(), "run-1", item, nil)

	if res.Ticket.Status != feedback.TicketSuccess {
		t.Fatalf("status = %s, want success", res.Ticket.Status)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if len(res.Log) != 3 {
		t.Errorf("log entries = %d, want 3", len(res.Log))
	}
}
