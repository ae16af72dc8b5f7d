package deploy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fleetpush/fleetpush/internal/testutil"
	"github.com/fleetpush/fleetpush/pkg/profile"
)

func TestPromptMatching(t *testing.T) {
	tests := []struct {
		output string
		suffix string
		want   bool
	}{
		{"sw-01#", "#", true},
		{"sw-01# ", "#", true},
		{"banner text\r\nsw-01#\r\n", "#", true},
		{"sw-01>", "#", false},
		{"user@sw-01> ", ">", true},
		{"", "#", false},
	}
	for _, tt := range tests {
		if got := promptEndsWith(tt.output, tt.suffix); got != tt.want {
			t.Errorf("promptEndsWith(%q, %q) = %v, want %v", tt.output, tt.suffix, got, tt.want)
		}
	}
}

func TestAnyPromptSuffix(t *testing.T) {
	if !anyPromptSuffix("sw-01#") || !anyPromptSuffix("user@sw-01>") {
		t.Error("exec and operational prompts must both match")
	}
	if anyPromptSuffix("Password:") {
		t.Error("password prompt must not match")
	}
}

func TestLooksLikePasswordPrompt(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{"Password: ", true},
		{"password:", true},
		{"Enter enable password:", true},
		{"sw-01#", false},
	}
	for _, tt := range tests {
		if got := looksLikePasswordPrompt(tt.output); got != tt.want {
			t.Errorf("looksLikePasswordPrompt(%q) = %v, want %v", tt.output, got, tt.want)
		}
	}
}

func TestSSHDriverSkipsWhenCancelled(t *testing.T) {
	d := NewSSHDriver(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := &Task{Device: testutil.Devices(1, "cisco_ios")[0], Template: testutil.Template}
	out := d.Execute(ctx, task, ciscoProfile(t))
	if out.Status != StatusSkipped || out.Reason != ReasonCancelled {
		t.Errorf("outcome = %s/%s, want Skipped/Cancelled", out.Status, out.Reason)
	}
}

// fakeConn stands in for an established SSH connection and counts
// session-handle releases.
type fakeConn struct {
	closes int32
	shell  *shell
}

func (c *fakeConn) Close() error {
	atomic.AddInt32(&c.closes, 1)
	return nil
}

func (c *fakeConn) OpenShell() (*shell, error) {
	return c.shell, nil
}

// scriptedStdin answers each write with a prompt until its echo budget
// runs out, and can be told to fail from a given write onward.
type scriptedStdin struct {
	mu       sync.Mutex
	out      chan string
	prompt   string
	echoes   int // answered writes before going silent; -1 = always answer
	failFrom int // write index that starts failing; -1 = never fail
	writes   int
}

func (w *scriptedStdin) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failFrom >= 0 && w.writes >= w.failFrom {
		return 0, errors.New("broken pipe")
	}
	w.writes++
	if w.echoes != 0 {
		if w.echoes > 0 {
			w.echoes--
		}
		w.out <- w.prompt
	}
	return len(p), nil
}

func (w *scriptedStdin) Close() error { return nil }

func nxosProfile(t *testing.T) *profile.VendorProfile {
	t.Helper()
	p, err := profile.DefaultRegistry().Lookup("cisco_nxos")
	if err != nil {
		t.Fatalf("Lookup(cisco_nxos): %v", err)
	}
	return p
}

// fakeDial wires a fakeConn into a driver with short prompt waits.
func fakeDial(t *testing.T, stdin *scriptedStdin, out chan string) (*SSHDriver, *fakeConn) {
	t.Helper()
	conn := &fakeConn{shell: &shell{stdin: stdin, out: out}}
	d := NewSSHDriver(nil)
	d.PromptTimeout = 50 * time.Millisecond
	d.dial = func(ctx context.Context, task *Task, prof *profile.VendorProfile) (sessionConn, FailureReason, error) {
		return conn, "", nil
	}
	return d, conn
}

func TestSessionClosedOnceOnPromptTimeout(t *testing.T) {
	// No banner ever arrives, so the driver times out waiting for the
	// initial prompt. The session handle must still be released,
	// exactly once.
	out := make(chan string, 8)
	defer close(out)
	d, conn := fakeDial(t, &scriptedStdin{out: out, failFrom: -1}, out)

	task := &Task{Device: testutil.Devices(1, "cisco_nxos")[0], Template: "hostname sw-99\n"}
	res := d.Execute(context.Background(), task, nxosProfile(t))

	if res.Status != StatusFailed || res.Reason != ReasonTimeout {
		t.Errorf("outcome = %s/%s, want Failed/Timeout", res.Status, res.Reason)
	}
	if n := atomic.LoadInt32(&conn.closes); n != 1 {
		t.Errorf("session closed %d times, want exactly 1", n)
	}
}

func TestSessionClosedOnceOnSendFailure(t *testing.T) {
	out := make(chan string, 8)
	defer close(out)
	out <- "sw-99# " // login banner
	d, conn := fakeDial(t, &scriptedStdin{out: out, prompt: "sw-99# ", failFrom: 0}, out)

	task := &Task{Device: testutil.Devices(1, "cisco_nxos")[0], Template: "hostname sw-99\n"}
	res := d.Execute(context.Background(), task, nxosProfile(t))

	if res.Status != StatusFailed || res.Reason != ReasonSendFailed {
		t.Errorf("outcome = %s/%s, want Failed/SendFailed", res.Status, res.Reason)
	}
	if n := atomic.LoadInt32(&conn.closes); n != 1 {
		t.Errorf("session closed %d times, want exactly 1", n)
	}
}

func TestSaveWithoutResponseFails(t *testing.T) {
	// The device echoes a prompt for the single config line, then goes
	// silent on the save command. That must not be reported as success.
	out := make(chan string, 8)
	defer close(out)
	out <- "sw-99# " // login banner
	stdin := &scriptedStdin{out: out, prompt: "sw-99# ", echoes: 1, failFrom: -1}
	d, conn := fakeDial(t, stdin, out)

	task := &Task{Device: testutil.Devices(1, "cisco_nxos")[0], Template: "hostname sw-99\n"}
	res := d.Execute(context.Background(), task, nxosProfile(t))

	if res.Status != StatusFailed || res.Reason != ReasonSendFailed {
		t.Errorf("outcome = %s/%s, want Failed/SendFailed", res.Status, res.Reason)
	}
	if n := atomic.LoadInt32(&conn.closes); n != 1 {
		t.Errorf("session closed %d times, want exactly 1", n)
	}
}

func TestSSHDriverConnectRefused(t *testing.T) {
	d := NewSSHDriver(nil)
	d.ConnectTimeout = time.Second

	// Nothing listens on the discard port on loopback.
	dev := testutil.Devices(1, "cisco_ios")[0]
	dev.Host = "127.0.0.1"
	dev.Port = 9

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := d.Execute(ctx, &Task{Device: dev, Template: testutil.Template}, ciscoProfile(t))
	if out.Status != StatusFailed {
		t.Fatalf("status = %s, want Failed", out.Status)
	}
	if out.Reason != ReasonConnectionTimeout {
		t.Errorf("reason = %s, want ConnectionTimeout", out.Reason)
	}
	if out.Finished.Before(out.Started) {
		t.Error("finished timestamp precedes started")
	}
}
