package deploy

import (
	"sync"
	"time"
)

// RunStatus is the lifecycle state of a deployment run.
type RunStatus string

const (
	RunPending   RunStatus = "Pending"
	RunRunning   RunStatus = "Running"
	RunCompleted RunStatus = "Completed"
	RunCancelled RunStatus = "Cancelled"
)

// RunState is a point-in-time view of a run: counts by status and the
// per-device outcome map. Snapshots are value copies safe to read while
// the run continues.
type RunState struct {
	RunID     string              `json:"run_id"`
	Status    RunStatus           `json:"status"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Skipped   int                 `json:"skipped"`
	Pending   int                 `json:"pending"`
	Started   time.Time           `json:"started,omitempty"`
	Finished  time.Time           `json:"finished,omitempty"`
	Outcomes  map[string]*Outcome `json:"outcomes"`
}

// Terminal reports whether every task has reached a terminal outcome.
func (s *RunState) Terminal() bool {
	return s.Status == RunCompleted || s.Status == RunCancelled
}

// Aggregator folds the outcome stream into run-level state. Observe is
// called concurrently by pool workers; Snapshot may be called at any
// time from any goroutine. One mutex guards all state — this is the
// only shared mutable structure between workers.
type Aggregator struct {
	mu              sync.Mutex
	state           RunState
	cancelRequested bool
}

// NewAggregator creates an aggregator for a run of total tasks.
func NewAggregator(runID string, total int) *Aggregator {
	return &Aggregator{
		state: RunState{
			RunID:    runID,
			Status:   RunPending,
			Total:    total,
			Pending:  total,
			Outcomes: make(map[string]*Outcome, total),
		},
	}
}

// Start marks the run as running. A run with no tasks is terminal
// immediately.
func (a *Aggregator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Status = RunRunning
	a.state.Started = time.Now()
	if a.state.Pending == 0 {
		a.finishLocked()
	}
}

// MarkCancelRequested records that cancellation was requested. The run
// finishes Cancelled only if at least one task ends Skipped because of
// it; a cancel landing after the last task completes leaves the run
// Completed.
func (a *Aggregator) MarkCancelRequested() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelRequested = true
}

// Observe records one terminal outcome. Exactly one call per task.
func (a *Aggregator) Observe(o *Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch o.Status {
	case StatusSucceeded:
		a.state.Succeeded++
	case StatusFailed:
		a.state.Failed++
	case StatusSkipped:
		a.state.Skipped++
	}
	a.state.Pending--
	a.state.Outcomes[o.DeviceID] = o

	if a.state.Pending == 0 {
		a.finishLocked()
	}
}

func (a *Aggregator) finishLocked() {
	a.state.Finished = time.Now()
	if a.cancelRequested && a.state.Skipped > 0 {
		a.state.Status = RunCancelled
	} else {
		a.state.Status = RunCompleted
	}
}

// Snapshot returns a point-in-time copy of the run state. Outcomes are
// shared by pointer; they are write-once and read-only after Observe.
func (a *Aggregator) Snapshot() *RunState {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := a.state
	snap.Outcomes = make(map[string]*Outcome, len(a.state.Outcomes))
	for id, o := range a.state.Outcomes {
		snap.Outcomes[id] = o
	}
	return &snap
}
