package feedback

import (
	"strings"
	"time"
)

// RunStatus represents the lifecycle of a processing run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ParseRunStatus converts a string into a known RunStatus.
func ParseRunStatus(value string) (RunStatus, bool) {
	normalized := RunStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RunPending, RunRunning, RunCompleted, RunFailed:
		return normalized, true
	default:
		return "", false
	}
}

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Run is one execution of the pipeline over a batch of items. Only the job
// controller mutates a Run; everyone else reads snapshots.
type Run struct {
	RunID          string
	Status         RunStatus
	TotalItems     int
	CompletedItems int
	FallbackItems  int
	Cancelled      bool
	ErrorMessage   string
	CreatedAt      time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}
