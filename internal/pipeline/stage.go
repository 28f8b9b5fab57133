package pipeline

import (
	"triage/internal/classify"
	"triage/internal/feedback"
)

// Stage names the pipeline phases in execution order.
type Stage string

const (
	StageClassify   Stage = "classify"
	StageSpecialize Stage = "specialize"
	StageCompose    Stage = "compose"
	StageReview     Stage = "review"
	StageFallback   Stage = "fallback"
)

// Stages returns the ordered processing phases, excluding fallback.
func Stages() []Stage {
	return []Stage{StageClassify, StageSpecialize, StageCompose, StageReview}
}

// draft accumulates per-item state as the stages run. Only one goroutine
// touches a draft.
type draft struct {
	item           feedback.Item
	runID          string
	classification classify.Outcome
	bug            *classify.BugAnalysis
	feature        *classify.FeatureAnalysis
	ticket         feedback.Ticket
}
