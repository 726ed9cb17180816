package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigscout-engine/internal/domain"
)

// ErrNotFound is returned by LastResult before any run has finished.
var ErrNotFound = errors.New("status: no finished run")

// Snapshot is what the dashboard shows about the most recent run.
type Snapshot struct {
	Running     bool           `json:"running"`
	LastRunID   string         `json:"last_run_id"`
	LastTrigger domain.Trigger `json:"last_trigger,omitempty"`
	LastRunAt   string         `json:"last_run_at"`
	LastOkAt    string         `json:"last_ok_at"`
	LastCount   int            `json:"last_count"`
	LastError   string         `json:"last_error"`
	Message     string         `json:"message"`
}

// Store records run progress. The runner is the only writer; HTTP handlers
// and other processes read.
type Store interface {
	Begin(ctx context.Context, runID string, trigger domain.Trigger, at time.Time) error
	Finish(ctx context.Context, res domain.RunResult) error
	Get(ctx context.Context) (Snapshot, error)
	LastResult(ctx context.Context) (domain.RunResult, error)
	// Abandon clears a Running flag left by a process that died mid-run.
	// It reports whether anything changed.
	Abandon(ctx context.Context, at time.Time) (bool, error)
}

const idleMessage = "Ready"

// Initial is the snapshot of a store that has never seen a run.
func Initial() Snapshot {
	return Snapshot{Message: idleMessage}
}

// ApplyBegin marks s as running.
func ApplyBegin(s *Snapshot, runID string, trigger domain.Trigger, at time.Time) {
	s.Running = true
	s.LastRunID = runID
	s.LastTrigger = trigger
	s.LastRunAt = at.Format(time.RFC3339)
	s.Message = "Scan in progress"
}

// ApplyFinish records a completed run. LastCount reflects the batch even when
// notification failed.
func ApplyFinish(s *Snapshot, res domain.RunResult) {
	s.Running = false
	s.LastRunID = res.ID
	s.LastTrigger = res.Trigger
	s.LastRunAt = res.StartedAt.Format(time.RFC3339)
	s.LastCount = res.Unique

	switch {
	case res.Canceled:
		s.LastError = "run canceled"
		s.Message = fmt.Sprintf("Scan canceled after %d jobs.", res.Unique)
	case res.NotifyError != "":
		s.LastError = res.NotifyError
		s.Message = fmt.Sprintf("Scan complete. Found %d jobs; notification failed.", res.Unique)
	default:
		s.LastError = ""
		s.LastOkAt = res.FinishedAt.Format(time.RFC3339)
		s.Message = fmt.Sprintf("Scan complete. Found %d jobs.", res.Unique)
	}
}

// ApplyAbandon ends a run that never finished. It returns false when s was
// not running.
func ApplyAbandon(s *Snapshot, at time.Time) bool {
	if !s.Running {
		return false
	}
	s.Running = false
	s.LastError = "run abandoned"
	s.Message = fmt.Sprintf("Previous scan did not finish (cleared %s).", at.Format(time.RFC3339))
	return true
}
