package metrics

import (
	"time"

	"triage/internal/feedback"
)

// Summary aggregates what a run produced.
type Summary struct {
	RunID             string                    `json:"run_id"`
	TotalTickets      int                       `json:"total_tickets"`
	SuccessCount      int                       `json:"success_count"`
	FallbackCount     int                       `json:"fallback_count"`
	CategoryCounts    map[feedback.Category]int `json:"category_counts"`
	PriorityCounts    map[feedback.Priority]int `json:"priority_counts"`
	AverageConfidence *float64                  `json:"average_confidence"`
	ProcessingSeconds float64                   `json:"processing_seconds"`
}

// Summarize computes the Summary for one run's tickets. AverageConfidence
// covers success tickets only and is nil when a run produced none, because a
// zero would misread as "confidently wrong".
func Summarize(runID string, tickets []feedback.Ticket, started, finished time.Time) Summary {
	s := Summary{
		RunID:          runID,
		TotalTickets:   len(tickets),
		CategoryCounts: make(map[feedback.Category]int),
		PriorityCounts: make(map[feedback.Priority]int),
	}

	confidenceSum := 0.0
	for _, t := range tickets {
		s.CategoryCounts[t.Category]++
		s.PriorityCounts[t.Priority]++
		if t.Status == feedback.TicketFallback {
			s.FallbackCount++
			continue
		}
		s.SuccessCount++
		confidenceSum += t.Confidence
	}

	if s.SuccessCount > 0 {
		avg := confidenceSum / float64(s.SuccessCount)
		s.AverageConfidence = &avg
	}

	if !started.IsZero() && !finished.IsZero() && finished.After(started) {
		s.ProcessingSeconds = finished.Sub(started).Seconds()
	}
	return s
}
