// Package deploy implements the deployment engine: drivers that push a
// configuration template to one device over a remote session, a
// coordinator that fans tasks out across a bounded worker pool, and an
// aggregator that folds per-device outcomes into run-level state.
package deploy

import (
	"strings"
	"time"

	"github.com/fleetpush/fleetpush/pkg/inventory"
)

// Status is the terminal state of one device's deployment.
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusSkipped   Status = "Skipped"
)

// FailureReason classifies why a task did not succeed.
type FailureReason string

const (
	ReasonUnknownDeviceType         FailureReason = "UnknownDeviceType"
	ReasonConnectionTimeout         FailureReason = "ConnectionTimeout"
	ReasonAuthenticationFailed      FailureReason = "AuthenticationFailed"
	ReasonPrivilegeEscalationFailed FailureReason = "PrivilegeEscalationFailed"
	ReasonSendFailed                FailureReason = "SendFailed"
	ReasonTimeout                   FailureReason = "Timeout"
	ReasonCancelled                 FailureReason = "Cancelled"
)

// Credentials is the username/password bundle used to open sessions.
// Held in process memory only; never persisted.
type Credentials struct {
	Username     string `json:"-"`
	Password     string `json:"-"`
	EnableSecret string `json:"-"`
}

// Task pairs one device record with the shared configuration template
// and merged credentials. Created once per device when a run starts,
// immutable, consumed exactly once by a worker.
type Task struct {
	Device      *inventory.Device
	Template    string
	Credentials Credentials
}

// merged returns shared credentials overridden by per-device values.
func mergeCredentials(d *inventory.Device, shared Credentials) Credentials {
	c := shared
	if d.Username != "" {
		c.Username = d.Username
	}
	if d.Password != "" {
		c.Password = d.Password
	}
	if d.EnableSecret != "" {
		c.EnableSecret = d.EnableSecret
	}
	return c
}

// TranscriptCap bounds the per-device transcript length.
const TranscriptCap = 200

// Outcome is the terminal result of one task. Written exactly once by a
// driver (or the coordinator, for tasks that never reach a driver),
// then read-only.
type Outcome struct {
	DeviceID   string        `json:"device_id"`
	Host       string        `json:"host"`
	Status     Status        `json:"status"`
	Reason     FailureReason `json:"reason,omitempty"`
	Message    string        `json:"message,omitempty"`
	Started    time.Time     `json:"started"`
	Finished   time.Time     `json:"finished"`
	Transcript []string      `json:"transcript,omitempty"`
}

// Duration returns the task's wall-clock time.
func (o *Outcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// transcript accumulates exchanged lines up to TranscriptCap. Once the
// cap is hit a single truncation marker is recorded and further lines
// are dropped.
type transcript struct {
	lines     []string
	truncated bool
}

func (t *transcript) add(line string) {
	if len(t.lines) >= TranscriptCap {
		if !t.truncated {
			t.lines[TranscriptCap-1] = "... transcript truncated"
			t.truncated = true
		}
		return
	}
	t.lines = append(t.lines, line)
}

// addBlock splits multi-line output into transcript lines.
func (t *transcript) addBlock(block string) {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		t.add(line)
	}
}
