package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/logging"
	"triage/internal/metrics"
	"triage/internal/pipeline"
	"triage/internal/services"
	"triage/internal/store"
)

// SubmitOptions tunes one batch submission. Zero values fall back to the
// configured defaults.
type SubmitOptions struct {
	// Workers overrides the configured worker count for this run.
	Workers int
	// Expected carries ground-truth labels; when present the run finishes
	// with a quality evaluation alongside its summary metrics.
	Expected []metrics.Expected
}

// Runner orchestrates batch processing runs.
type Runner struct {
	store     *store.Store
	processor *pipeline.Processor
	workers   int
	logger    *slog.Logger
	newID     func() string

	// baseCtx outlives individual HTTP requests so a submitted run keeps
	// processing after the submit call returns. Closing the runner cancels
	// it.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	runs map[string]*runState
	wg   sync.WaitGroup
}

type runState struct {
	cancelled atomic.Bool
	done      chan struct{}
}

// New builds a runner on top of the store and per-item processor.
func New(cfg *config.Config, st *store.Store, processor *pipeline.Processor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workers.Count
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:     st,
		processor: processor,
		workers:   workers,
		logger:    logger.With(logging.String(logging.FieldComponent, "runner")),
		newID:     uuid.NewString,
		baseCtx:   ctx,
		cancel:    cancel,
		runs:      make(map[string]*runState),
	}
}

// Submit validates a batch, creates its run, and starts processing in the
// background. It returns the run ID immediately; callers poll Status.
func (r *Runner) Submit(ctx context.Context, items []feedback.Item, opts SubmitOptions) (string, error) {
	if err := validateBatch(items); err != nil {
		return "", err
	}

	runID := r.newID()
	if _, err := r.store.CreateRun(ctx, runID, len(items)); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	state := &runState{done: make(chan struct{})}
	r.mu.Lock()
	r.runs[runID] = state
	r.mu.Unlock()

	workers := r.workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(state.done)
		r.execute(runID, state, items, workers, opts.Expected)
	}()

	r.logger.Info("run submitted",
		logging.String(logging.FieldRunID, runID),
		logging.Int("items", len(items)),
		logging.Int("workers", workers))
	return runID, nil
}

func validateBatch(items []feedback.Item) error {
	if len(items) == 0 {
		return services.Wrap(services.ErrInvalidBatch, "submit", "validate", "batch is empty", nil)
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return services.Wrap(services.ErrInvalidBatch, "submit", "validate", err.Error(), nil)
		}
		if _, dup := seen[item.ID]; dup {
			return services.Wrap(services.ErrInvalidBatch, "submit", "validate",
				fmt.Sprintf("duplicate item id %s", item.ID), nil)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// Status returns the current run snapshot.
func (r *Runner) Status(ctx context.Context, runID string) (*feedback.Run, error) {
	return r.store.GetRun(ctx, runID)
}

// Cancel flags a run for cooperative cancellation. Items already dispatched
// to workers finish and are recorded; undispatched items are dropped.
func (r *Runner) Cancel(ctx context.Context, runID string) error {
	if err := r.store.MarkRunCancelled(ctx, runID); err != nil {
		return err
	}
	r.mu.Lock()
	state := r.runs[runID]
	r.mu.Unlock()
	if state != nil {
		state.cancelled.Store(true)
	}
	r.logger.Info("run cancellation requested", logging.String(logging.FieldRunID, runID))
	return nil
}

// Done returns a channel that closes when the run's background processing
// finishes. Unknown runs get a closed channel.
func (r *Runner) Done(runID string) <-chan struct{} {
	r.mu.Lock()
	state := r.runs[runID]
	r.mu.Unlock()
	if state == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return state.done
}

// Close cancels the base context and waits for active runs to drain.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) execute(runID string, state *runState, items []feedback.Item, workers int, expected []metrics.Expected) {
	ctx := services.WithRunID(r.baseCtx, runID)
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	if err := r.store.StartRun(ctx, runID); err != nil {
		logger.Error("start run failed", logging.Error(err))
		r.failRun(runID, logger, err)
		return
	}

	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan feedback.Item)
	var (
		wg       sync.WaitGroup
		faultMu  sync.Mutex
		faultErr error
	)

	recordFault := func(err error) {
		faultMu.Lock()
		if faultErr == nil {
			faultErr = err
		}
		faultMu.Unlock()
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				r.processItem(ctx, runID, item, logger, recordFault)
			}
		}()
	}

	// The dispatch loop is the cancellation point: a cancelled run stops
	// handing out work but lets in-flight items finish and be recorded.
	dispatched := 0
	for _, item := range items {
		if state.cancelled.Load() || ctx.Err() != nil {
			break
		}
		jobs <- item
		dispatched++
	}
	close(jobs)
	wg.Wait()

	faultMu.Lock()
	fault := faultErr
	faultMu.Unlock()
	if fault != nil {
		r.failRun(runID, logger, fault)
		return
	}

	r.finalize(runID, logger, expected)
	logger.Info("run finished",
		logging.Int("dispatched", dispatched),
		logging.Int("total", len(items)),
		logging.Bool("cancelled", state.cancelled.Load()))
}

func (r *Runner) processItem(ctx context.Context, runID string, item feedback.Item, logger *slog.Logger, recordFault func(error)) {
	seen := func(sourceID string) bool {
		exists, err := r.store.HasTicket(ctx, runID, sourceID)
		if err != nil {
			logger.Warn("duplicate check failed", logging.Error(err))
			return false
		}
		return exists
	}

	itemCtx := services.WithSourceID(ctx, item.ID)
	result := r.processor.Process(itemCtx, runID, item, seen)
	if err := r.store.RecordOutcome(ctx, result.Ticket, result.Log); err != nil {
		logger.Error("record outcome failed",
			logging.String(logging.FieldSourceID, item.ID),
			logging.Error(err))
		recordFault(fmt.Errorf("record outcome for %s: %w", item.ID, err))
	}
}

// failRun moves a run to failed after a controller fault. Tickets recorded
// before the fault stay in place.
func (r *Runner) failRun(runID string, logger *slog.Logger, cause error) {
	ctx := context.Background()
	if err := r.store.FinishRun(ctx, runID, feedback.RunFailed, cause.Error()); err != nil {
		logger.Error("mark run failed", logging.Error(err))
	}
}

func (r *Runner) finalize(runID string, logger *slog.Logger, expected []metrics.Expected) {
	// Finalization survives runner shutdown; it only talks to the store.
	ctx := context.Background()

	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		logger.Error("load run for finalize", logging.Error(err))
		r.failRun(runID, logger, err)
		return
	}

	tickets, err := r.store.TicketsForRun(ctx, runID)
	if err != nil {
		logger.Error("load tickets for finalize", logging.Error(err))
		r.failRun(runID, logger, err)
		return
	}

	started := run.CreatedAt
	if run.StartedAt != nil {
		started = *run.StartedAt
	}
	var finished = started
	for _, t := range tickets {
		if t.CreatedAt.After(finished) {
			finished = t.CreatedAt
		}
	}

	report := metrics.Report{Summary: metrics.Summarize(runID, tickets, started, finished)}
	if len(expected) > 0 {
		ev := metrics.Evaluate(tickets, expected)
		report.Evaluation = &ev
	}
	if err := r.store.SaveMetrics(ctx, runID, report); err != nil {
		logger.Error("save metrics", logging.Error(err))
		r.failRun(runID, logger, err)
		return
	}

	if err := r.store.FinishRun(ctx, runID, feedback.RunCompleted, ""); err != nil {
		logger.Error("finish run", logging.Error(err))
	}
}
