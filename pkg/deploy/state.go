package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DateTimeFormat is the timestamp format used in status output.
const DateTimeFormat = "2006-01-02 15:04:05"

// StateDir returns the state directory for a run id.
func StateDir(runID string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("deploy: user home dir: %w", err)
	}
	return filepath.Join(home, ".fleetpush", "runs", runID), nil
}

// SaveRunState writes the run state to state.json in the run's state
// directory.
func SaveRunState(state *RunState) error {
	dir, err := StateDir(state.RunID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("deploy: create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("deploy: marshal state: %w", err)
	}

	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("deploy: write state: %w", err)
	}
	return nil
}

// LoadRunState reads run state from state.json. Returns nil, nil if the
// run has no persisted state.
func LoadRunState(runID string) (*RunState, error) {
	dir, err := StateDir(runID)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "state.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("deploy: read state: %w", err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("deploy: parse state.json: %w", err)
	}
	return &state, nil
}

// LatestRunID returns the most recent run id with persisted state, or
// "" when none exist. Run ids embed a timestamp, so lexical order is
// chronological.
func LatestRunID() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("deploy: user home dir: %w", err)
	}
	runsDir := filepath.Join(home, ".fleetpush", "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("deploy: read runs dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	if len(ids) == 0 {
		return "", nil
	}
	sort.Strings(ids)
	return ids[len(ids)-1], nil
}
