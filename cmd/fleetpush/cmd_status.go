package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/cli"
	"github.com/fleetpush/fleetpush/pkg/deploy"
)

func newStatusCmd() *cobra.Command {
	var (
		jsonOut bool
		query   string
	)

	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show the state of a deployment run",
		Long: `Status prints the persisted state of a run: counts by outcome and one
line per device. With no argument the most recent run is shown. State
is written incrementally during a run, so status works while a
deployment is still in flight.

  fleetpush status
  fleetpush status run-20260824-101500.000
  fleetpush status --json
  fleetpush status --query '.outcomes | to_entries[] | select(.value.status == "Failed") | .key'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) > 0 {
				runID = args[0]
			} else {
				latest, err := deploy.LatestRunID()
				if err != nil {
					return err
				}
				if latest == "" {
					return fmt.Errorf("no runs found")
				}
				runID = latest
			}

			state, err := deploy.LoadRunState(runID)
			if err != nil {
				return err
			}
			if state == nil {
				return fmt.Errorf("no state for run %s", runID)
			}

			if query != "" {
				return printQuery(state, query)
			}
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "    ")
				return enc.Encode(state)
			}

			printRunState(state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw state JSON")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Apply a jq filter to the state JSON")
	return cmd
}

func printRunState(state *deploy.RunState) {
	fmt.Printf("\nRun:     %s\n", state.RunID)
	fmt.Printf("Status:  %s\n", colorRunStatus(state.Status))
	fmt.Printf("Started: %s\n", state.Started.Format(deploy.DateTimeFormat))
	if !state.Finished.IsZero() {
		fmt.Printf("Finished: %s\n", state.Finished.Format(deploy.DateTimeFormat))
	}
	fmt.Printf("Devices: %d total, %d succeeded, %d failed, %d skipped, %d pending\n\n",
		state.Total, state.Succeeded, state.Failed, state.Skipped, state.Pending)

	ids := make([]string, 0, len(state.Outcomes))
	width := 0
	for id := range state.Outcomes {
		ids = append(ids, id)
		if len(id) > width {
			width = len(id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		out := state.Outcomes[id]
		padded := cli.DotPad(id, width+6)
		switch out.Status {
		case deploy.StatusSucceeded:
			fmt.Printf("  %s %s\n", padded, cli.Green(string(out.Status)))
		case deploy.StatusFailed:
			fmt.Printf("  %s %s  %s\n", padded, cli.Red(string(out.Status)), cli.Dim(string(out.Reason)))
		case deploy.StatusSkipped:
			fmt.Printf("  %s %s\n", padded, cli.Yellow(string(out.Status)))
		}
	}
	fmt.Println()
}

func colorRunStatus(s deploy.RunStatus) string {
	switch s {
	case deploy.RunCompleted:
		return cli.Green(string(s))
	case deploy.RunCancelled:
		return cli.Yellow(string(s))
	case deploy.RunRunning:
		return cli.Bold(string(s))
	default:
		return string(s)
	}
}

// printQuery round-trips the state through JSON and runs a gojq filter
// over it.
func printQuery(state *deploy.RunState, query string) error {
	q, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	iter := q.Run(value)
	enc := json.NewEncoder(os.Stdout)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
