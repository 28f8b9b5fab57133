package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"triage/internal/feedback"
	"triage/internal/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadReviews(t *testing.T) {
	path := writeFile(t, "reviews.csv",
		"review_id,review_text,platform,rating,app_version,user_name,date\n"+
			"rev-1,App crashes on startup,iOS,1,2.3.0,sam,2026-01-15\n"+
			"rev-2,Please add dark mode,Android,4,2.3.0,alex,2026-01-16\n"+
			",missing id row,iOS,3,2.3.0,kim,2026-01-17\n"+
			"rev-4,,iOS,3,2.3.0,kim,2026-01-17\n")

	result, err := LoadReviews(path, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadReviews: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(result.Items))
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}

	first := result.Items[0]
	if first.ID != "rev-1" || first.Source != feedback.SourceReview {
		t.Errorf("unexpected item: %+v", first)
	}
	if first.Metadata["platform"] != "iOS" || first.Metadata["rating"] != "1" {
		t.Errorf("metadata = %v", first.Metadata)
	}
}

func TestLoadEmailsMergesSubjectAndBody(t *testing.T) {
	path := writeFile(t, "emails.csv",
		"email_id,subject,body,sender_email,timestamp,priority\n"+
			"em-1,Refund request,I was charged twice this month.,user@example.com,2026-01-15T10:00:00Z,high\n")

	result, err := LoadEmails(path, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadEmails: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(result.Items))
	}
	item := result.Items[0]
	if item.Source != feedback.SourceEmail {
		t.Errorf("source = %s, want email", item.Source)
	}
	want := "Refund request\n\nI was charged twice this month."
	if item.Text != want {
		t.Errorf("text = %q, want %q", item.Text, want)
	}
	if item.Metadata["sender_email"] != "user@example.com" {
		t.Errorf("metadata = %v", item.Metadata)
	}
}

func TestLoadReviewsMissingColumnFails(t *testing.T) {
	path := writeFile(t, "bad.csv", "id,text\n1,hello\n")
	if _, err := LoadReviews(path, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing required columns")
	}
}

func TestLoadExpected(t *testing.T) {
	path := writeFile(t, "expected.csv",
		"source_id,source_type,category,priority\n"+
			"rev-1,review,Bug,High\n"+
			"rev-2,review,feature_request,Low\n"+
			"rev-3,review,NotACategory,Low\n")

	expected, skipped, err := LoadExpected(path, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadExpected: %v", err)
	}
	if len(expected) != 2 {
		t.Fatalf("expected = %d entries, want 2", len(expected))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if expected[1].Category != feedback.CategoryFeatureRequest {
		t.Errorf("category = %s, want Feature Request", expected[1].Category)
	}
}
