package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"triage/internal/classify"
	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/services"
)

// SeenFunc reports whether a source ID already has a ticket in the current
// run. The review stage uses it as a duplicate guard.
type SeenFunc func(sourceID string) bool

// Pipeline runs the ordered stages for a single item. It holds no per-item
// state and is safe for concurrent use.
type Pipeline struct {
	classifier classify.Classifier
	analyzer   classify.Analyzer
	rules      *PriorityRules
	threshold  float64
	strict     bool
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// New builds a pipeline from the application configuration and backends.
func New(cfg *config.Config, classifier classify.Classifier, analyzer classify.Analyzer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		classifier: classifier,
		analyzer:   analyzer,
		rules:      NewPriorityRules(cfg.Priority),
		threshold:  cfg.Pipeline.ClassificationThreshold,
		strict:     cfg.Pipeline.StrictThreshold,
		logger:     logger.With(logging.String(logging.FieldComponent, "pipeline")),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run executes classify, specialize, compose, and review for one item and
// returns the finished ticket. Errors are tagged with the failing stage.
func (p *Pipeline) Run(ctx context.Context, runID string, item feedback.Item, seen SeenFunc) (feedback.Ticket, error) {
	d := &draft{item: item, runID: runID}

	if err := p.classify(ctx, d); err != nil {
		return feedback.Ticket{}, err
	}
	if err := p.specialize(ctx, d); err != nil {
		return feedback.Ticket{}, err
	}
	p.compose(d)
	if err := p.review(d, seen); err != nil {
		return feedback.Ticket{}, err
	}
	return d.ticket, nil
}

func (p *Pipeline) classify(ctx context.Context, d *draft) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTimeout, string(StageClassify), "run", "context done", err)
	}

	outcome, err := p.classifier.Classify(ctx, classify.Request{
		Text:    d.item.Text,
		Source:  d.item.Source,
		Context: d.item.Metadata,
	})
	if err != nil {
		return err
	}

	if p.strict && outcome.Confidence < p.threshold && thresholdApplies(outcome.Category) {
		return services.Wrap(services.ErrClassification, string(StageClassify), "threshold",
			fmt.Sprintf("confidence %.2f below %.2f", outcome.Confidence, p.threshold), nil)
	}

	d.classification = outcome
	p.logger.Debug("item classified",
		logging.String(logging.FieldSourceID, d.item.ID),
		logging.String("category", string(outcome.Category)),
		logging.Float64("confidence", outcome.Confidence))
	return nil
}

// thresholdApplies reports whether the confidence gate covers a category.
// Praise and Spam are exempt: a hesitant call on either still files an
// acceptable low-stakes ticket.
func thresholdApplies(category feedback.Category) bool {
	return category != feedback.CategoryPraise && category != feedback.CategorySpam
}

func (p *Pipeline) specialize(ctx context.Context, d *draft) error {
	if p.analyzer == nil {
		return nil
	}
	switch d.classification.Category {
	case feedback.CategoryBug:
		analysis, err := p.analyzer.AnalyzeBug(ctx, d.item.Text)
		if err != nil {
			return err
		}
		d.bug = &analysis
	case feedback.CategoryFeatureRequest:
		analysis, err := p.analyzer.AnalyzeFeature(ctx, d.item.Text)
		if err != nil {
			return err
		}
		d.feature = &analysis
	}
	return nil
}
