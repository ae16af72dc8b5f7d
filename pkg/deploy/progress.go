package deploy

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fleetpush/fleetpush/pkg/cli"
	"github.com/fleetpush/fleetpush/pkg/inventory"
	"github.com/fleetpush/fleetpush/pkg/util"
)

// ProgressReporter receives lifecycle callbacks while a run executes.
// The CLI pumps the run's event stream through one or more reporters.
type ProgressReporter interface {
	RunStart(state *RunState, devices []*inventory.Device)
	DeviceDone(out *Outcome, completed, total int)
	RunEnd(state *RunState)
}

// consoleProgress is an append-only terminal progress reporter.
// It never uses ANSI cursor rewriting, so output is safe for pipes, CI,
// and scrollback buffers.
type consoleProgress struct {
	W       io.Writer
	Verbose bool

	dotWidth int
}

// NewConsoleProgress creates a consoleProgress writing to stdout.
func NewConsoleProgress(verbose bool) ProgressReporter {
	return &consoleProgress{
		W:       os.Stdout,
		Verbose: verbose,
	}
}

func (p *consoleProgress) RunStart(state *RunState, devices []*inventory.Device) {
	maxName := 0
	for _, d := range devices {
		if len(d.ID()) > maxName {
			maxName = len(d.ID())
		}
	}
	p.dotWidth = maxName + 6

	fmt.Fprintf(p.W, "\nfleetpush: %s, %d devices\n\n", state.RunID, state.Total)

	if p.Verbose {
		fmt.Fprintf(p.W, "  %-4s  %-*s  %s\n", "#", p.dotWidth-6, "DEVICE", "HOST")
		for i, d := range devices {
			fmt.Fprintf(p.W, "  %-4d  %-*s  %s\n", i+1, p.dotWidth-6, d.ID(), d.Host)
		}
		fmt.Fprintln(p.W)
	}
}

func (p *consoleProgress) DeviceDone(out *Outcome, completed, total int) {
	tag := fmt.Sprintf("[%d/%d]", completed, total)
	padded := cli.DotPad(out.DeviceID, p.dotWidth)

	switch out.Status {
	case StatusSucceeded:
		fmt.Fprintf(p.W, "  %-9s %s %s  (%s)\n", tag, padded, cli.Green("OK"), formatDurationCompact(out.Duration()))
	case StatusFailed:
		fmt.Fprintf(p.W, "  %-9s %s %s  %s\n", tag, padded, cli.Red("FAIL"), cli.Dim(string(out.Reason)))
	case StatusSkipped:
		fmt.Fprintf(p.W, "  %-9s %s %s\n", tag, padded, cli.Yellow("SKIP"))
	}

	if p.Verbose && out.Status == StatusFailed && out.Message != "" {
		fmt.Fprintf(p.W, "            %s\n", cli.Dim(out.Message))
	}
}

func (p *consoleProgress) RunEnd(state *RunState) {
	fmt.Fprintf(p.W, "\n---\n")
	fmt.Fprintf(p.W, "fleetpush: %d devices: ", state.Total)

	parts := ""
	if state.Succeeded > 0 {
		parts += cli.Green(fmt.Sprintf("%d succeeded", state.Succeeded))
	}
	if state.Failed > 0 {
		if parts != "" {
			parts += ", "
		}
		parts += cli.Red(fmt.Sprintf("%d failed", state.Failed))
	}
	if state.Skipped > 0 {
		if parts != "" {
			parts += ", "
		}
		parts += cli.Yellow(fmt.Sprintf("%d skipped", state.Skipped))
	}
	if parts == "" {
		parts = "no outcomes"
	}
	duration := state.Finished.Sub(state.Started)
	fmt.Fprintf(p.W, "%s  (%s, %s)\n", parts, state.Status, formatDurationCompact(duration))

	if state.Failed > 0 {
		fmt.Fprintf(p.W, "\n  FAILED:\n")
		ids := make([]string, 0, state.Failed)
		for id, out := range state.Outcomes {
			if out.Status == StatusFailed {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		for _, id := range ids {
			out := state.Outcomes[id]
			padded := cli.DotPad(id, p.dotWidth)
			fmt.Fprintf(p.W, "    %s %s: %s\n", padded, out.Reason, out.Message)
		}
	}
	fmt.Fprintln(p.W)
}

// formatDurationCompact formats a duration in a human-readable compact form.
func formatDurationCompact(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// StateReporter wraps another reporter and persists run state after
// each outcome, so `fleetpush status` shows live progress.
type StateReporter struct {
	Inner    ProgressReporter
	Snapshot func() *RunState
}

func (r *StateReporter) RunStart(state *RunState, devices []*inventory.Device) {
	if err := SaveRunState(state); err != nil {
		util.Logger.Warnf("save run state: %v", err)
	}
	r.Inner.RunStart(state, devices)
}

func (r *StateReporter) DeviceDone(out *Outcome, completed, total int) {
	if err := SaveRunState(r.Snapshot()); err != nil {
		util.Logger.Warnf("save run state: %v", err)
	}
	r.Inner.DeviceDone(out, completed, total)
}

func (r *StateReporter) RunEnd(state *RunState) {
	if err := SaveRunState(state); err != nil {
		util.Logger.Warnf("save run state: %v", err)
	}
	r.Inner.RunEnd(state)
}
