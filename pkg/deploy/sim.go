package deploy

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fleetpush/fleetpush/pkg/profile"
	"github.com/fleetpush/fleetpush/pkg/util"
)

// SimDriver fabricates deployment outcomes without any network I/O, for
// risk-free rehearsal. It sleeps for a bounded random delay, then
// resolves to Succeeded with probability SuccessRate. Deadline and
// cancellation behave exactly as in the real driver, so the coordinator
// cannot tell the two apart except by outcome content.
type SimDriver struct {
	Log *logrus.Entry

	// MinDelay and MaxDelay bound the artificial latency.
	MinDelay time.Duration
	MaxDelay time.Duration

	// SuccessRate is the probability of a Succeeded outcome, in [0, 1].
	SuccessRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimDriver returns a simulated driver seeded for reproducible runs.
func NewSimDriver(log *logrus.Entry, seed int64) *SimDriver {
	if log == nil {
		log = logrus.NewEntry(util.Logger)
	}
	return &SimDriver{
		Log:         log,
		MinDelay:    time.Second,
		MaxDelay:    3 * time.Second,
		SuccessRate: 0.9,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Execute fabricates one outcome, honoring the task context.
func (d *SimDriver) Execute(ctx context.Context, task *Task, prof *profile.VendorProfile) *Outcome {
	out := &Outcome{
		DeviceID: task.Device.ID(),
		Host:     task.Device.Host,
		Started:  time.Now(),
	}
	tr := &transcript{}
	defer func() {
		out.Finished = time.Now()
		out.Transcript = tr.lines
	}()

	log := d.Log.WithField("device", out.DeviceID)
	log.Debug("simulating deployment")

	delay, success := d.roll()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		out.Status, out.Reason = ctxOutcome(ctx)
		if out.Reason == ReasonCancelled {
			out.Message = "cancelled mid-session (simulated)"
		} else {
			out.Message = "deadline exceeded (simulated)"
		}
		log.WithField("reason", out.Reason).Debug("simulated deployment interrupted")
		return out
	}

	tr.add(fmt.Sprintf("connected to %s (simulated)", task.Device.Host))
	if prof.EnableCommand != "" {
		tr.add("> " + prof.EnableCommand)
	}
	lines := ConfigLines(task.Template)
	tr.add(fmt.Sprintf("sent %d configuration lines", len(lines)))
	if prof.SaveCommand != "" {
		tr.add("> " + prof.SaveCommand)
	}

	if !success {
		out.Status = StatusFailed
		out.Reason = ReasonConnectionTimeout
		out.Message = "connection timeout (simulated)"
		log.Debug("simulated deployment failed")
		return out
	}

	out.Status = StatusSucceeded
	out.Message = "configuration deployed (simulated)"
	log.Debug("simulated deployment succeeded")
	return out
}

// roll draws the delay and success verdict under the lock; the driver
// is shared by all pool workers.
func (d *SimDriver) roll() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delay := d.MinDelay
	if d.MaxDelay > d.MinDelay {
		delay += time.Duration(d.rng.Int63n(int64(d.MaxDelay - d.MinDelay)))
	}
	return delay, d.rng.Float64() < d.SuccessRate
}
