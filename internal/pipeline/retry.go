package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/services"
)

// MaxAttempts bounds how many times an item runs through the pipeline before
// the processor gives up and emits a fallback ticket.
const MaxAttempts = 3

// Result is the guaranteed outcome of processing one item: a ticket, the
// audit log entries produced along the way, and the attempt count.
type Result struct {
	Ticket   feedback.Ticket
	Log      []feedback.LogEntry
	Attempts int
}

// Processor drives one item through the pipeline with bounded retries. It
// never returns an error for item-level failures; exhaustion produces a
// fallback ticket so every submitted item yields exactly one ticket.
type Processor struct {
	pipeline         *Pipeline
	descriptionLimit int
	logger           *slog.Logger
	now              func() time.Time
	newID            func() string
}

// NewProcessor wraps a pipeline in retry and fallback handling.
func NewProcessor(cfg *config.Config, p *Pipeline, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		pipeline:         p,
		descriptionLimit: cfg.Pipeline.DescriptionLimit,
		logger:           logger.With(logging.String(logging.FieldComponent, "processor")),
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

// Process runs one item to completion. The returned Result always carries a
// ticket: a success ticket when a pipeline pass succeeds, or a fallback
// ticket when attempts are exhausted or a non-retryable failure occurs.
func (pr *Processor) Process(ctx context.Context, runID string, item feedback.Item, seen SeenFunc) Result {
	var (
		entries  []feedback.LogEntry
		lastErr  error
		attempts int
	)

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		attempts = attempt
		ticket, err := pr.pipeline.Run(ctx, runID, item, seen)
		if err == nil {
			entries = append(entries, pr.logEntry(runID, item.ID, string(StageReview), "process",
				"success", &ticket.Confidence, attempt))
			return Result{Ticket: ticket, Log: entries, Attempts: attempt}
		}
		lastErr = err

		entries = append(entries, pr.logEntry(runID, item.ID, "pipeline", services.Kind(err),
			"error: "+err.Error(), nil, attempt))
		pr.logger.Warn("pipeline attempt failed",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldSourceID, item.ID),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(err))

		if !services.Retryable(err) {
			break
		}
		// Retries are immediate; the only wait worth honoring is the caller
		// giving up.
		if ctx.Err() != nil {
			break
		}
	}

	ticket := FallbackTicket(runID, item, lastErr, attempts, pr.descriptionLimit, pr.newID(), pr.now())
	zero := 0.0
	entries = append(entries, pr.logEntry(runID, item.ID, string(StageFallback), "fallback",
		"fallback ticket created", &zero, attempts))
	pr.logger.Warn("item degraded to fallback ticket",
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldSourceID, item.ID),
		logging.Error(lastErr))
	return Result{Ticket: ticket, Log: entries, Attempts: attempts}
}

func (pr *Processor) logEntry(runID, sourceID, stage, action, result string, confidence *float64, attempt int) feedback.LogEntry {
	return feedback.LogEntry{
		LogID:      pr.newID(),
		RunID:      runID,
		SourceID:   sourceID,
		Stage:      stage,
		Action:     action,
		Result:     result,
		Confidence: confidence,
		Attempt:    attempt,
		Timestamp:  pr.now().UTC(),
	}
}

func causeKind(err error) string {
	if err == nil {
		return "unknown"
	}
	return services.Kind(err)
}
