package deploy

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/fleetpush/fleetpush/pkg/profile"
	"github.com/fleetpush/fleetpush/pkg/util"
)

// SSHDriver deploys a template over an interactive SSH shell session:
// connect, escalate privilege, send the configuration line by line,
// issue the vendor's save command, close. Each step is gated by the
// task context's deadline and cancellation signal.
type SSHDriver struct {
	// Log receives one record per step transition.
	Log *logrus.Entry

	// ConnectTimeout bounds the TCP dial and SSH handshake. The task
	// deadline still applies on top of it.
	ConnectTimeout time.Duration

	// PromptTimeout bounds each wait for device output within a step.
	PromptTimeout time.Duration

	// dial opens the session transport. Nil means real SSH; tests
	// substitute a fake to exercise the session lifecycle offline.
	dial func(ctx context.Context, task *Task, prof *profile.VendorProfile) (sessionConn, FailureReason, error)
}

// sessionConn is an established connection that can host one
// interactive shell. Close releases the underlying session handle and
// must be called exactly once per successful dial.
type sessionConn interface {
	OpenShell() (*shell, error)
	Close() error
}

// NewSSHDriver returns a driver with default timeouts.
func NewSSHDriver(log *logrus.Entry) *SSHDriver {
	if log == nil {
		log = logrus.NewEntry(util.Logger)
	}
	return &SSHDriver{
		Log:            log,
		ConnectTimeout: 10 * time.Second,
		PromptTimeout:  10 * time.Second,
	}
}

// Execute runs the full session protocol for one task.
func (d *SSHDriver) Execute(ctx context.Context, task *Task, prof *profile.VendorProfile) *Outcome {
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

	// Step 1: connect.
	if d.gate(ctx, out, "before connect") {
		return out
	}
	log.Debug("connecting")
	dial := d.dial
	if dial == nil {
		dial = d.connect
	}
	conn, reason, err := dial(ctx, task, prof)
	if err != nil {
		if ctx.Err() != nil {
			d.finishInterrupted(ctx, out, "during connect")
		} else {
			out.Status = StatusFailed
			out.Reason = reason
			out.Message = err.Error()
		}
		log.WithField("reason", out.Reason).Warnf("connect failed: %v", err)
		return out
	}
	// Step 5 is unconditional: the session is released on every exit path.
	defer conn.Close()
	log.Info("connected")
	tr.add(fmt.Sprintf("connected to %s", task.Device.Host))

	sh, err := conn.OpenShell()
	if err != nil {
		out.Status = StatusFailed
		out.Reason = ReasonSendFailed
		out.Message = fmt.Sprintf("open shell: %v", err)
		log.Warnf("open shell: %v", err)
		return out
	}
	defer sh.close()

	// Drain the login banner up to the first prompt.
	banner, err := d.readUntil(ctx, sh, anyPromptSuffix)
	tr.addBlock(banner)
	if err != nil {
		if ctx.Err() != nil {
			d.finishInterrupted(ctx, out, "waiting for initial prompt")
		} else {
			out.Status = StatusFailed
			out.Reason = ReasonTimeout
			out.Message = "no prompt after connect"
		}
		log.WithField("reason", out.Reason).Warn("no initial prompt")
		return out
	}

	// Step 2: privilege escalation.
	if d.gate(ctx, out, "before privilege escalation") {
		return out
	}
	if prof.EnableCommand != "" {
		log.Debug("escalating privilege")
		if reason, err := d.escalate(ctx, sh, tr, task, prof); err != nil {
			if ctx.Err() != nil {
				d.finishInterrupted(ctx, out, "during privilege escalation")
			} else {
				out.Status = StatusFailed
				out.Reason = reason
				out.Message = err.Error()
			}
			log.WithField("reason", out.Reason).Warnf("privilege escalation failed: %v", err)
			return out
		}
		log.Debug("privileged mode entered")
	}

	// Step 3: send configuration.
	if d.gate(ctx, out, "before configuration send") {
		return out
	}
	lines := ConfigLines(task.Template)
	log.WithField("lines", len(lines)).Info("sending configuration")
	for _, line := range lines {
		if d.gate(ctx, out, "during configuration send") {
			return out
		}
		tr.add("> " + line)
		if err := sh.sendLine(line); err != nil {
			out.Status = StatusFailed
			out.Reason = ReasonSendFailed
			out.Message = fmt.Sprintf("send %q: %v", line, err)
			log.Warnf("send failed: %v", err)
			return out
		}
		echo, err := d.readUntil(ctx, sh, anyPromptSuffix)
		tr.addBlock(echo)
		if err != nil {
			if ctx.Err() != nil {
				d.finishInterrupted(ctx, out, "during configuration send")
				return out
			}
			out.Status = StatusFailed
			out.Reason = ReasonSendFailed
			out.Message = fmt.Sprintf("no response after %q", line)
			log.Warn(out.Message)
			return out
		}
	}

	// Step 4: save. Profiles without a save command persist per-line.
	if d.gate(ctx, out, "before save") {
		return out
	}
	if prof.SaveCommand != "" {
		log.Debug("saving configuration")
		for _, cmd := range strings.Split(prof.SaveCommand, "\n") {
			tr.add("> " + cmd)
			if err := sh.sendLine(cmd); err != nil {
				out.Status = StatusFailed
				out.Reason = ReasonSendFailed
				out.Message = fmt.Sprintf("save: %v", err)
				log.Warnf("save failed: %v", err)
				return out
			}
			resp, err := d.readUntil(ctx, sh, anyPromptSuffix)
			tr.addBlock(resp)
			if err != nil {
				if ctx.Err() != nil {
					d.finishInterrupted(ctx, out, "during save")
					return out
				}
				out.Status = StatusFailed
				out.Reason = ReasonSendFailed
				out.Message = fmt.Sprintf("no response after %q", cmd)
				log.Warn(out.Message)
				return out
			}
		}
	}

	out.Status = StatusSucceeded
	out.Message = "configuration deployed and saved"
	log.Info("deployment succeeded")
	return out
}

// gate checks the context at a step boundary. When the context is done
// it finalizes the outcome and reports true.
func (d *SSHDriver) gate(ctx context.Context, out *Outcome, where string) bool {
	if ctx.Err() == nil {
		return false
	}
	d.finishInterrupted(ctx, out, where)
	return true
}

func (d *SSHDriver) finishInterrupted(ctx context.Context, out *Outcome, where string) {
	out.Status, out.Reason = ctxOutcome(ctx)
	if out.Reason == ReasonCancelled {
		out.Message = "cancelled " + where
	} else {
		out.Message = "deadline exceeded " + where
	}
}

// connect dials TCP under the context, then completes the SSH handshake
// with password auth. The task deadline is applied to the raw
// connection so a stalled handshake cannot outlive it.
func (d *SSHDriver) connect(ctx context.Context, task *Task, prof *profile.VendorProfile) (sessionConn, FailureReason, error) {
	port := task.Device.Port
	if port == 0 {
		port = prof.DefaultPort
	}
	addr := net.JoinHostPort(task.Device.Host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: d.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ReasonConnectionTimeout, fmt.Errorf("dial %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	config := &ssh.ClientConfig{
		User: task.Credentials.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(task.Credentials.Password),
		},
		// Fleet rollouts hit factory-fresh devices; host keys are not
		// known ahead of time.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.ConnectTimeout,
	}

	sconn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		msg := err.Error()
		if strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "permission denied") {
			return nil, ReasonAuthenticationFailed, fmt.Errorf("auth %s: %w", addr, err)
		}
		return nil, ReasonConnectionTimeout, fmt.Errorf("handshake %s: %w", addr, err)
	}

	client := ssh.NewClient(sconn, chans, reqs)
	// Handshake done; step deadlines are enforced via the context from
	// here on, not the socket.
	conn.SetDeadline(time.Time{})
	return &sshConn{client: client}, "", nil
}

// escalate sends the enable command, answers the secret prompt if one
// appears, and verifies the privileged prompt suffix.
func (d *SSHDriver) escalate(ctx context.Context, sh *shell, tr *transcript, task *Task, prof *profile.VendorProfile) (FailureReason, error) {
	tr.add("> " + prof.EnableCommand)
	if err := sh.sendLine(prof.EnableCommand); err != nil {
		return ReasonPrivilegeEscalationFailed, fmt.Errorf("send %s: %w", prof.EnableCommand, err)
	}

	resp, err := d.readUntil(ctx, sh, func(s string) bool {
		return promptEndsWith(s, prof.PromptSuffix) || looksLikePasswordPrompt(s)
	})
	tr.addBlock(resp)
	if err != nil {
		return ReasonPrivilegeEscalationFailed, fmt.Errorf("no response to %s", prof.EnableCommand)
	}

	if looksLikePasswordPrompt(resp) {
		if err := sh.sendLine(task.Credentials.EnableSecret); err != nil {
			return ReasonPrivilegeEscalationFailed, fmt.Errorf("send enable secret: %w", err)
		}
		resp, err = d.readUntil(ctx, sh, func(s string) bool {
			return promptEndsWith(s, prof.PromptSuffix)
		})
		tr.addBlock(resp)
		if err != nil {
			return ReasonPrivilegeEscalationFailed, fmt.Errorf("enable secret rejected")
		}
		return "", nil
	}

	if !promptEndsWith(resp, prof.PromptSuffix) {
		return ReasonPrivilegeEscalationFailed,
			fmt.Errorf("prompt mismatch after %s: want suffix %q", prof.EnableCommand, prof.PromptSuffix)
	}
	return "", nil
}

// readUntil reads until match reports true for the accumulated output,
// the per-exchange timeout lapses, or the context is done.
func (d *SSHDriver) readUntil(ctx context.Context, sh *shell, match func(string) bool) (string, error) {
	timer := time.NewTimer(d.PromptTimeout)
	defer timer.Stop()

	var b strings.Builder
	for {
		select {
		case chunk, ok := <-sh.out:
			if !ok {
				return b.String(), fmt.Errorf("session closed")
			}
			b.WriteString(chunk)
			if match(b.String()) {
				return b.String(), nil
			}
		case <-timer.C:
			return b.String(), fmt.Errorf("prompt wait timed out")
		case <-ctx.Done():
			return b.String(), ctx.Err()
		}
	}
}

// anyPromptSuffix accepts either an exec ("#") or operational (">")
// prompt; config sub-modes end in one of the two on every supported
// family.
func anyPromptSuffix(s string) bool {
	return promptEndsWith(s, "#") || promptEndsWith(s, ">")
}

func promptEndsWith(s, suffix string) bool {
	return strings.HasSuffix(strings.TrimRight(s, " \r\n"), suffix)
}

func looksLikePasswordPrompt(s string) bool {
	return strings.Contains(strings.ToLower(strings.TrimRight(s, " \r\n")), "password")
}

// shell is an interactive session with a pumped stdout channel so reads
// can be raced against timeouts and cancellation.
type shell struct {
	closer io.Closer
	stdin  io.WriteCloser
	out    chan string
}

// sshConn adapts an SSH client to the sessionConn seam.
type sshConn struct {
	client *ssh.Client
}

func (c *sshConn) Close() error {
	return c.client.Close()
}

func (c *sshConn) OpenShell() (*shell, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", 80, 200, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	sh := &shell{
		closer: session,
		stdin:  stdin,
		out:    make(chan string, 16),
	}
	go func() {
		defer close(sh.out)
		buf := make([]byte, 4096)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				sh.out <- string(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return sh, nil
}

func (s *shell) sendLine(line string) error {
	_, err := s.stdin.Write([]byte(line + "\n"))
	return err
}

// close tears down the session and drains the reader goroutine so it
// cannot block on the output channel.
func (s *shell) close() {
	if s.closer != nil {
		s.closer.Close()
	}
	go func() {
		for range s.out {
		}
	}()
}
