package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/cli"
	"github.com/fleetpush/fleetpush/pkg/deploy"
	"github.com/fleetpush/fleetpush/pkg/settings"
	"github.com/fleetpush/fleetpush/pkg/util"
)

func newCheckCmd() *cobra.Command {
	var (
		inventoryPath string
		model         string
		username      string
		password      string
		concurrency   int
		timeoutSec    int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe reachability of every device in an inventory",
		Long: `Check attempts an SSH login to each device, falling back to a bare TCP
probe, so unreachable devices can be told apart from credential
problems before a deployment.

  fleetpush check -i inventory.csv -u admin -p secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag {
				util.SetLogLevel("debug")
			}

			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			if concurrency == 0 {
				concurrency = cfg.GetConcurrency()
			}

			devices, err := loadInventory(inventoryPath, cfg, model)
			if err != nil {
				return err
			}

			creds := deploy.Credentials{Username: username, Password: password}
			results := deploy.CheckDevices(context.Background(), devices, creds,
				concurrency, time.Duration(timeoutSec)*time.Second)

			width := 0
			for _, r := range results {
				if len(r.DeviceID) > width {
					width = len(r.DeviceID)
				}
			}

			unreachable := 0
			for _, r := range results {
				padded := cli.DotPad(r.DeviceID, width+6)
				switch {
				case r.SSHOK:
					fmt.Printf("  %s %s  %s\n", padded, cli.Green("OK"), cli.Dim(r.Detail))
				case r.Reachable:
					fmt.Printf("  %s %s  %s\n", padded, cli.Yellow("WARN"), cli.Dim(r.Detail))
				default:
					unreachable++
					fmt.Printf("  %s %s  %s\n", padded, cli.Red("DOWN"), cli.Dim(r.Detail))
				}
			}

			if unreachable > 0 {
				return fmt.Errorf("%d of %d devices unreachable", unreachable, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "Inventory file (.csv or .yaml)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Default device model for records without one")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Shared username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Shared password")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max concurrent probes")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 10, "Per-device probe timeout in seconds")
	return cmd
}
