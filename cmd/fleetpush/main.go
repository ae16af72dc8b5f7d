package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/version"
)

var verboseFlag bool

// Sentinel errors for exit code mapping. RunE handlers return these
// instead of calling os.Exit directly, so deferred cleanup runs.
var (
	errPartialFailure = errors.New("one or more devices failed")
	errRunCancelled   = errors.New("run cancelled")
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleetpush",
		Short: "Push configuration templates to network device fleets",
		Long: `Fleetpush deploys a configuration template to an inventory of network
devices over SSH, with bounded concurrency, per-device timeouts, and
vendor-aware session handling (enable mode, save/commit).

Typical workflow:
  fleetpush validate -c baseline.cfg            # check the template
  fleetpush check -i inventory.csv              # probe reachability
  fleetpush deploy -i inventory.csv -c baseline.cfg
  fleetpush status                              # inspect the last run

Use --demo to rehearse a rollout without touching any device.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		newDeployCmd(),
		newStatusCmd(),
		newCheckCmd(),
		newValidateCmd(),
		newModelsCmd(),
		newSettingsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("fleetpush %s\n", version.Info())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRunCancelled) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
