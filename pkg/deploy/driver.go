package deploy

import (
	"context"
	"errors"

	"github.com/fleetpush/fleetpush/pkg/profile"
)

// Driver executes one deployment task against one device and returns a
// terminal outcome. Errors never cross this boundary as Go errors;
// every failure mode is encoded in the outcome's status and reason.
//
// The context carries the per-task deadline and the run's cancellation
// signal. Implementations must observe it at every step boundary:
// cancellation yields a Skipped outcome, deadline expiry a Failed one
// with reason Timeout, both preserving the partial transcript. Session
// resources are released on every exit path.
type Driver interface {
	Execute(ctx context.Context, task *Task, prof *profile.VendorProfile) *Outcome
}

// ctxOutcome classifies a done context into the status and reason the
// interrupted task must report.
func ctxOutcome(ctx context.Context) (Status, FailureReason) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return StatusSkipped, ReasonCancelled
	}
	return StatusFailed, ReasonTimeout
}
