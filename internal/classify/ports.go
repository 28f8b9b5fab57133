package classify

import (
	"context"

	"triage/internal/feedback"
)

// Request carries one item's text plus whatever source context the backend
// can use to classify it.
type Request struct {
	Text    string
	Source  feedback.SourceType
	Context map[string]string
}

// Outcome is the result of one classification call.
type Outcome struct {
	Category   feedback.Category
	Confidence float64
	Reasoning  string
}

// Classifier is the classification port. Implementations must be safe for
// concurrent use up to the worker-pool size.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Outcome, error)
}

// BugAnalysis is the specialization payload for Bug items.
type BugAnalysis struct {
	Platform              string
	StepsToReproduce      string
	Severity              string
	AffectedFunctionality string
}

// FeatureAnalysis is the specialization payload for Feature Request items.
type FeatureAnalysis struct {
	Summary   string
	Impact    string
	PainPoint string
}

// Analyzer is the specialization port for category-specific analysis.
type Analyzer interface {
	AnalyzeBug(ctx context.Context, text string) (BugAnalysis, error)
	AnalyzeFeature(ctx context.Context, text string) (FeatureAnalysis, error)
}

// Severity and impact levels reported by analyzers.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, req Request) (Outcome, error)

func (f ClassifierFunc) Classify(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}
