package deploy

import (
	"testing"
	"time"
)

func TestSaveLoadRunState(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	state := &RunState{
		RunID:     "run-20260101-120000.000",
		Status:    RunCompleted,
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Started:   time.Now().Add(-time.Minute).Truncate(time.Second),
		Finished:  time.Now().Truncate(time.Second),
		Outcomes: map[string]*Outcome{
			"sw-01": {DeviceID: "sw-01", Status: StatusSucceeded},
			"sw-02": {DeviceID: "sw-02", Status: StatusFailed, Reason: ReasonAuthenticationFailed},
		},
	}
	if err := SaveRunState(state); err != nil {
		t.Fatalf("SaveRunState: %v", err)
	}

	loaded, err := LoadRunState(state.RunID)
	if err != nil {
		t.Fatalf("LoadRunState: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadRunState returned nil for a saved run")
	}
	if loaded.Status != RunCompleted || loaded.Succeeded != 1 || loaded.Failed != 1 {
		t.Errorf("loaded = %s %d/%d, want Completed 1/1", loaded.Status, loaded.Succeeded, loaded.Failed)
	}
	if out := loaded.Outcomes["sw-02"]; out == nil || out.Reason != ReasonAuthenticationFailed {
		t.Errorf("sw-02 outcome = %+v, want AuthenticationFailed", out)
	}
}

func TestLoadRunStateMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	state, err := LoadRunState("run-never-happened")
	if err != nil {
		t.Fatalf("LoadRunState: %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestLatestRunID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	latest, err := LatestRunID()
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if latest != "" {
		t.Errorf("latest = %q, want empty with no runs", latest)
	}

	for _, id := range []string{
		"run-20260101-120000.000",
		"run-20260102-090000.000",
		"run-20260101-180000.000",
	} {
		if err := SaveRunState(&RunState{RunID: id, Status: RunCompleted}); err != nil {
			t.Fatalf("SaveRunState(%s): %v", id, err)
		}
	}

	latest, err = LatestRunID()
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if latest != "run-20260102-090000.000" {
		t.Errorf("latest = %q, want run-20260102-090000.000", latest)
	}
}
