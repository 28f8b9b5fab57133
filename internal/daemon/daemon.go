package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"triage/internal/api"
	"triage/internal/config"
	"triage/internal/logging"
	"triage/internal/runner"
	"triage/internal/store"
)

// Daemon coordinates the runner and API server and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	runner *runner.Runner
	server *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DBPath       string
	LockFilePath string
	ActiveRuns   int
	TotalRuns    int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, r *runner.Runner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || r == nil {
		return nil, errors.New("daemon requires config, store, and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "triaged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:    st,
		runner:   r,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, d.logger)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	if d.server != nil {
		if err := d.server.start(ctx); err != nil {
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.Int("pid", os.Getpid()),
		logging.String("db", d.store.Path()),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts the API server down, drains active runs, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.server != nil {
		d.server.stop()
	}
	d.runner.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Status reports current daemon state.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
	runs, err := d.store.ListRuns(ctx, 0)
	if err != nil {
		d.logger.Warn("list runs for status", logging.Error(err))
		return status
	}
	status.TotalRuns = len(runs)
	for _, run := range runs {
		if !run.Status.Terminal() {
			status.ActiveRuns++
		}
	}
	return status
}

// View converts Status for the wire.
func (s Status) View() api.DaemonStatus {
	return api.DaemonStatus{
		Running:      s.Running,
		PID:          s.PID,
		DBPath:       s.DBPath,
		LockFilePath: s.LockFilePath,
		ActiveRuns:   s.ActiveRuns,
		TotalRuns:    s.TotalRuns,
	}
}
