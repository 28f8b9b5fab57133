package pipeline

import (
	"fmt"
	"strings"
	"time"

	"triage/internal/feedback"
)

const titleLimit = 80

func (p *Pipeline) compose(d *draft) {
	item := d.item
	category := d.classification.Category

	ticket := feedback.Ticket{
		TicketID:    p.newID(),
		RunID:       d.runID,
		SourceID:    item.ID,
		Source:      item.Source,
		Category:    category,
		Priority:    p.rules.Assign(category, item.Text),
		Description: strings.TrimSpace(item.Text),
		Confidence:  d.classification.Confidence,
		CreatedAt:   p.now().UTC(),
		Status:      feedback.TicketSuccess,
	}

	ticket.Title = composeTitle(category, d)
	ticket.TechnicalDetails = composeDetails(d)
	d.ticket = ticket
}

func composeTitle(category feedback.Category, d *draft) string {
	subject := ""
	switch {
	case d.bug != nil && d.bug.AffectedFunctionality != "":
		subject = d.bug.AffectedFunctionality
	case d.feature != nil && d.feature.Summary != "":
		subject = d.feature.Summary
	default:
		subject = firstLine(d.item.Text)
	}
	return fmt.Sprintf("[%s] %s", category, truncate(subject, titleLimit))
}

func composeDetails(d *draft) string {
	var lines []string
	if reasoning := strings.TrimSpace(d.classification.Reasoning); reasoning != "" {
		lines = append(lines, "Reasoning: "+reasoning)
	}
	if d.bug != nil {
		if d.bug.Platform != "" {
			lines = append(lines, "Platform: "+d.bug.Platform)
		}
		if d.bug.Severity != "" {
			lines = append(lines, "Severity: "+d.bug.Severity)
		}
		if d.bug.StepsToReproduce != "" {
			lines = append(lines, "Steps to reproduce: "+d.bug.StepsToReproduce)
		}
		if d.bug.AffectedFunctionality != "" {
			lines = append(lines, "Affected functionality: "+d.bug.AffectedFunctionality)
		}
	}
	if d.feature != nil {
		if d.feature.Impact != "" {
			lines = append(lines, "Impact: "+d.feature.Impact)
		}
		if d.feature.PainPoint != "" {
			lines = append(lines, "Pain point: "+d.feature.PainPoint)
		}
	}
	return strings.Join(lines, "\n")
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

// FallbackTicket builds the deterministic ticket recorded when processing an
// item fails after every retry. It never depends on partial pipeline state.
func FallbackTicket(runID string, item feedback.Item, cause error, attempts, descriptionLimit int, id string, at time.Time) feedback.Ticket {
	details := fmt.Sprintf("error=%s attempts=%d", causeKind(cause), attempts)
	return feedback.Ticket{
		TicketID:         id,
		RunID:            runID,
		SourceID:         item.ID,
		Source:           item.Source,
		Title:            fmt.Sprintf("[Failed] Manual review required - %s", item.ID),
		Category:         feedback.CategoryFailed,
		Priority:         feedback.PriorityMedium,
		Description:      truncate(strings.TrimSpace(item.Text), descriptionLimit),
		TechnicalDetails: details,
		Confidence:       0.0,
		CreatedAt:        at.UTC(),
		Status:           feedback.TicketFallback,
	}
}
