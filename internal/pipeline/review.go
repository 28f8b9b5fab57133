package pipeline

import (
	"fmt"
	"strings"

	"triage/internal/feedback"
	"triage/internal/services"
)

// review is the quality gate between compose and persistence. Structural
// failures are retryable; a duplicate source ID is not, because retrying
// cannot change it.
func (p *Pipeline) review(d *draft, seen SeenFunc) error {
	t := d.ticket

	if strings.TrimSpace(t.Title) == "" {
		return services.Wrap(services.ErrQuality, string(StageReview), "structure", "empty title", nil)
	}
	if strings.TrimSpace(t.Description) == "" {
		return services.Wrap(services.ErrQuality, string(StageReview), "structure", "empty description", nil)
	}
	if _, ok := feedback.ParseCategory(string(t.Category)); !ok {
		return services.Wrap(services.ErrQuality, string(StageReview), "structure",
			fmt.Sprintf("unknown category %q", t.Category), nil)
	}
	if t.Priority.Rank() == 0 {
		return services.Wrap(services.ErrQuality, string(StageReview), "structure",
			fmt.Sprintf("unknown priority %q", t.Priority), nil)
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return services.Wrap(services.ErrQuality, string(StageReview), "structure",
			fmt.Sprintf("confidence %.2f out of range", t.Confidence), nil)
	}
	if want := p.rules.Assign(t.Category, d.item.Text); t.Priority != want {
		return services.Wrap(services.ErrQuality, string(StageReview), "priority",
			fmt.Sprintf("priority %s does not match rules (%s)", t.Priority, want), nil)
	}
	if seen != nil && seen(t.SourceID) {
		return services.Wrap(services.ErrValidation, string(StageReview), "duplicate",
			fmt.Sprintf("source %s already has a ticket", t.SourceID), nil)
	}
	return nil
}
