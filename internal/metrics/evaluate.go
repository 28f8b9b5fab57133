package metrics

import (
	"sort"

	"triage/internal/feedback"
)

// Expected is one ground-truth label for quality evaluation.
type Expected struct {
	SourceID string
	Category feedback.Category
}

// CategoryScore holds per-category quality numbers. A nil score means the
// denominator was empty and the metric is undefined, which is different from
// a score of zero.
type CategoryScore struct {
	Precision *float64 `json:"precision"`
	Recall    *float64 `json:"recall"`
	F1        *float64 `json:"f1"`
	Support   int      `json:"support"`
}

// Evaluation compares a run's tickets against ground-truth labels.
type Evaluation struct {
	TotalCompared int                                 `json:"total_compared"`
	Correct       int                                 `json:"correct"`
	Accuracy      *float64                            `json:"accuracy"`
	PerCategory   map[feedback.Category]CategoryScore `json:"per_category"`
	// Confusion counts tickets by expected category, then actual category.
	Confusion map[feedback.Category]map[feedback.Category]int `json:"confusion"`
	// UnmatchedExpected lists expected source IDs with no ticket.
	UnmatchedExpected []string `json:"unmatched_expected,omitempty"`
	// UnmatchedTickets lists ticket source IDs with no expectation.
	UnmatchedTickets []string `json:"unmatched_tickets,omitempty"`
}

// Report is the persisted metrics payload for a run. Evaluation is nil when
// the run had no ground-truth labels.
type Report struct {
	Summary    Summary     `json:"summary"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// Evaluate scores classification quality for tickets with known labels.
// Fallback tickets count against accuracy when their source has a label; an
// item we failed to classify is still an item we got wrong.
func Evaluate(tickets []feedback.Ticket, expected []Expected) Evaluation {
	ev := Evaluation{
		PerCategory: make(map[feedback.Category]CategoryScore),
		Confusion:   make(map[feedback.Category]map[feedback.Category]int),
	}

	labels := make(map[string]feedback.Category, len(expected))
	for _, e := range expected {
		labels[e.SourceID] = e.Category
	}

	actuals := make(map[string]feedback.Category, len(tickets))
	for _, t := range tickets {
		actuals[t.SourceID] = t.Category
	}

	for _, t := range tickets {
		if _, ok := labels[t.SourceID]; !ok {
			ev.UnmatchedTickets = append(ev.UnmatchedTickets, t.SourceID)
		}
	}
	for sourceID := range labels {
		if _, ok := actuals[sourceID]; !ok {
			ev.UnmatchedExpected = append(ev.UnmatchedExpected, sourceID)
		}
	}
	sort.Strings(ev.UnmatchedTickets)
	sort.Strings(ev.UnmatchedExpected)

	for sourceID, want := range labels {
		got, ok := actuals[sourceID]
		if !ok {
			continue
		}
		ev.TotalCompared++
		if got == want {
			ev.Correct++
		}
		row := ev.Confusion[want]
		if row == nil {
			row = make(map[feedback.Category]int)
			ev.Confusion[want] = row
		}
		row[got]++
	}

	if ev.TotalCompared > 0 {
		accuracy := float64(ev.Correct) / float64(ev.TotalCompared)
		ev.Accuracy = &accuracy
	}

	for _, category := range feedback.AllCategories() {
		score := scoreCategory(ev.Confusion, category)
		if score.Precision == nil && score.Recall == nil && score.Support == 0 {
			continue
		}
		ev.PerCategory[category] = score
	}
	return ev
}

func scoreCategory(confusion map[feedback.Category]map[feedback.Category]int, category feedback.Category) CategoryScore {
	truePositive := 0
	expectedTotal := 0
	predictedTotal := 0

	for want, row := range confusion {
		for got, count := range row {
			if want == category {
				expectedTotal += count
				if got == category {
					truePositive += count
				}
			}
			if got == category && want != category {
				predictedTotal += count
			}
		}
	}
	predictedTotal += truePositive

	score := CategoryScore{Support: expectedTotal}
	if predictedTotal > 0 {
		precision := float64(truePositive) / float64(predictedTotal)
		score.Precision = &precision
	}
	if expectedTotal > 0 {
		recall := float64(truePositive) / float64(expectedTotal)
		score.Recall = &recall
	}
	if score.Precision != nil && score.Recall != nil && *score.Precision+*score.Recall > 0 {
		f1 := 2 * (*score.Precision) * (*score.Recall) / (*score.Precision + *score.Recall)
		score.F1 = &f1
	}
	return score
}
