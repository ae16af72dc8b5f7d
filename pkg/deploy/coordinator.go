package deploy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fleetpush/fleetpush/pkg/inventory"
	"github.com/fleetpush/fleetpush/pkg/profile"
	"github.com/fleetpush/fleetpush/pkg/util"
)

// Config carries the run parameters for a Coordinator. Explicit struct
// instead of globals so callers own concurrency, timeout, and driver
// selection per run.
type Config struct {
	// Concurrency caps the number of simultaneously executing tasks.
	// Defaults to 10.
	Concurrency int

	// TaskTimeout bounds each device's full driver protocol.
	// Defaults to 60s.
	TaskTimeout time.Duration

	// Driver executes tasks: the SSH driver or the simulated one.
	Driver Driver

	// Registry resolves device-type keys to vendor profiles.
	Registry *profile.Registry

	// Log is the injected logging capability.
	Log *logrus.Entry
}

// Coordinator turns an inventory plus a template into a bounded batch
// of driver invocations, one task per device.
type Coordinator struct {
	cfg Config
}

// NewCoordinator applies defaults and returns a coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 60 * time.Second
	}
	if cfg.Registry == nil {
		cfg.Registry = profile.DefaultRegistry()
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(util.Logger)
	}
	return &Coordinator{cfg: cfg}
}

// Run is a handle on one in-flight batch deployment.
type Run struct {
	ID string

	agg    *Aggregator
	events chan *Outcome
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the outcome stream, one event per task in completion
// order. The channel is closed after the last terminal outcome. It is
// buffered to the task count, so the run finishes even if the consumer
// lags or walks away.
func (r *Run) Events() <-chan *Outcome {
	return r.events
}

// Cancel requests cooperative cancellation: in-flight drivers stop at
// their next step boundary and report Skipped; queued tasks are marked
// Skipped without ever invoking a driver.
func (r *Run) Cancel() {
	r.agg.MarkCancelRequested()
	r.cancel()
}

// Snapshot returns the current run state.
func (r *Run) Snapshot() *RunState {
	return r.agg.Snapshot()
}

// Done is closed once every task is terminal.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until every task is terminal and returns the final state.
func (r *Run) Wait() *RunState {
	<-r.done
	return r.agg.Snapshot()
}

// Start launches one deployment run: one task per device record, at
// most Concurrency executing at once, excess tasks queued FIFO. Every
// device record yields exactly one terminal outcome, even under
// cancellation. One failing device never affects its siblings.
func (c *Coordinator) Start(ctx context.Context, devices []*inventory.Device, template string, shared Credentials) *Run {
	runID := newRunID()
	log := c.cfg.Log.WithField("run", runID)

	tasks := make([]*Task, len(devices))
	for i, d := range devices {
		tasks[i] = &Task{
			Device:      d,
			Template:    template,
			Credentials: mergeCredentials(d, shared),
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:     runID,
		agg:    NewAggregator(runID, len(tasks)),
		events: make(chan *Outcome, len(tasks)),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.agg.Start()
	log.WithFields(logrus.Fields{
		"devices":     len(tasks),
		"concurrency": c.cfg.Concurrency,
		"timeout":     c.cfg.TaskTimeout,
	}).Info("deployment run started")

	// Unbuffered queue: a task is either with the feeder (not started,
	// skippable without a driver call) or with a worker.
	queue := make(chan *Task)

	go func() {
		defer close(queue)
		for i, t := range tasks {
			select {
			case queue <- t:
			case <-ctx.Done():
				// This task and everything behind it never started.
				for _, rest := range tasks[i:] {
					c.deliver(r, skippedOutcome(rest, "run cancelled before start"))
				}
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if ctx.Err() != nil {
					c.deliver(r, skippedOutcome(task, "run cancelled before start"))
					continue
				}
				c.deliver(r, c.runTask(ctx, task, log))
			}
		}()
	}

	go func() {
		wg.Wait()
		close(r.events)
		close(r.done)
		final := r.agg.Snapshot()
		log.WithFields(logrus.Fields{
			"status":    final.Status,
			"succeeded": final.Succeeded,
			"failed":    final.Failed,
			"skipped":   final.Skipped,
		}).Info("deployment run finished")
	}()

	return r
}

// runTask resolves the device's vendor profile and invokes the driver
// under the per-task timeout. Every failure mode is converted into a
// terminal outcome here; nothing propagates to sibling tasks.
func (c *Coordinator) runTask(ctx context.Context, task *Task, log *logrus.Entry) *Outcome {
	id := task.Device.ID()
	prof, err := c.cfg.Registry.Lookup(task.Device.DeviceType)
	if err != nil {
		now := time.Now()
		log.WithField("device", id).Warnf("profile lookup: %v", err)
		return &Outcome{
			DeviceID: id,
			Host:     task.Device.Host,
			Status:   StatusFailed,
			Reason:   ReasonUnknownDeviceType,
			Message:  err.Error(),
			Started:  now,
			Finished: now,
		}
	}

	tctx, tcancel := context.WithTimeout(ctx, c.cfg.TaskTimeout)
	defer tcancel()

	log.WithField("device", id).Debug("task dispatched")
	return c.cfg.Driver.Execute(tctx, task, prof)
}

// deliver records the outcome and emits it on the event stream. Observe
// happens first, so a snapshot taken after receiving event k reflects
// at least k outcomes.
func (c *Coordinator) deliver(r *Run, out *Outcome) {
	r.agg.Observe(out)
	r.events <- out
}

func skippedOutcome(task *Task, msg string) *Outcome {
	now := time.Now()
	return &Outcome{
		DeviceID: task.Device.ID(),
		Host:     task.Device.Host,
		Status:   StatusSkipped,
		Reason:   ReasonCancelled,
		Message:  msg,
		Started:  now,
		Finished: now,
	}
}

func newRunID() string {
	return fmt.Sprintf("run-%s", time.Now().Format("20060102-150405.000"))
}
