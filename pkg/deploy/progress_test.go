package deploy

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFailedSummarySorted(t *testing.T) {
	var buf bytes.Buffer
	p := &consoleProgress{W: &buf, dotWidth: 12}

	state := &RunState{
		RunID:    "run-1",
		Status:   RunCompleted,
		Total:    3,
		Failed:   3,
		Started:  time.Now().Add(-time.Second),
		Finished: time.Now(),
		Outcomes: map[string]*Outcome{
			"sw-03": {DeviceID: "sw-03", Status: StatusFailed, Reason: ReasonSendFailed, Message: "broken pipe"},
			"sw-01": {DeviceID: "sw-01", Status: StatusFailed, Reason: ReasonAuthenticationFailed, Message: "bad password"},
			"sw-02": {DeviceID: "sw-02", Status: StatusFailed, Reason: ReasonConnectionTimeout, Message: "dial timeout"},
		},
	}
	p.RunEnd(state)

	out := buf.String()
	i1 := strings.Index(out, "sw-01")
	i2 := strings.Index(out, "sw-02")
	i3 := strings.Index(out, "sw-03")
	if i1 < 0 || i2 < 0 || i3 < 0 {
		t.Fatalf("missing failed devices in summary:\n%s", out)
	}
	if !(i1 < i2 && i2 < i3) {
		t.Errorf("failed summary not sorted by device id:\n%s", out)
	}
}

func TestFormatDurationCompact(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{3 * time.Second, "3s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
	}
	for _, tt := range tests {
		if got := formatDurationCompact(tt.d); got != tt.want {
			t.Errorf("formatDurationCompact(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
