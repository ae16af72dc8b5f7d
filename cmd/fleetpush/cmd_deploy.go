package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/deploy"
	"github.com/fleetpush/fleetpush/pkg/settings"
	"github.com/fleetpush/fleetpush/pkg/util"
)

func newDeployCmd() *cobra.Command {
	var (
		inventoryPath string
		configPath    string
		model         string
		username      string
		password      string
		enableSecret  string
		concurrency   int
		timeoutSec    int
		demo          bool
		demoSeed      int64
		demoRate      float64
		redisAddr     string
		yes           bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a configuration template to an inventory",
		Long: `Deploy pushes one configuration template to every device in the
inventory. At most --concurrency sessions run at once; each device is
bounded by --timeout. A failing device never affects its siblings, and
the run always completes with a per-device outcome for every record.

Interrupt (Ctrl-C) cancels cooperatively: in-flight sessions stop at
the next protocol step and queued devices are skipped untouched.

  fleetpush deploy -i inventory.csv -c baseline.cfg
  fleetpush deploy -i inventory.yaml -c baseline.cfg --demo
  fleetpush deploy -i inventory.csv -c baseline.cfg -u admin --concurrency 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag {
				util.SetLogLevel("debug")
			} else {
				util.SetLogLevel("warn")
			}

			cfg, err := settings.Load()
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			if concurrency == 0 {
				concurrency = cfg.GetConcurrency()
			}
			if timeoutSec == 0 {
				timeoutSec = cfg.GetTaskTimeoutSeconds()
			}
			if redisAddr == "" {
				redisAddr = cfg.RedisAddr
			}

			devices, err := loadInventory(inventoryPath, cfg, model)
			if err != nil {
				return err
			}

			template, err := readTemplate(configPath)
			if err != nil {
				return err
			}
			warnings, err := deploy.ValidateTemplate(template)
			if err != nil {
				return fmt.Errorf("template %s: %w", configPath, err)
			}
			for _, w := range warnings {
				util.Logger.Warnf("template: %s", w)
			}

			creds := deploy.Credentials{
				Username:     username,
				Password:     password,
				EnableSecret: enableSecret,
			}
			if !demo && creds.Password == "" {
				creds.Password, err = promptPassword(fmt.Sprintf("Password for %s: ", orAny(creds.Username)))
				if err != nil {
					return err
				}
			}

			mode := ""
			if demo {
				mode = " (demo)"
			}
			if !yes && !confirm(fmt.Sprintf("Deploy %s to %d devices%s?", configPath, len(devices), mode)) {
				return errRunCancelled
			}

			var driver deploy.Driver
			if demo {
				sim := deploy.NewSimDriver(util.WithField("driver", "sim"), demoSeed)
				if demoRate >= 0 {
					sim.SuccessRate = demoRate
				}
				driver = sim
			} else {
				driver = deploy.NewSSHDriver(util.WithField("driver", "ssh"))
			}

			coord := deploy.NewCoordinator(deploy.Config{
				Concurrency: concurrency,
				TaskTimeout: time.Duration(timeoutSec) * time.Second,
				Driver:      driver,
				Log:         util.WithField("component", "coordinator"),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			run := coord.Start(context.Background(), devices, template, creds)
			go func() {
				select {
				case <-ctx.Done():
					fmt.Fprintln(os.Stderr, "\ninterrupt received, cancelling run...")
					run.Cancel()
				case <-run.Done():
				}
			}()

			reporters := []deploy.ProgressReporter{
				&deploy.StateReporter{
					Inner:    deploy.NewConsoleProgress(verboseFlag),
					Snapshot: run.Snapshot,
				},
			}
			if redisAddr != "" {
				pub := deploy.NewRedisPublisher(redisAddr)
				defer pub.Close()
				reporters = append(reporters, pub)
			}

			for _, r := range reporters {
				r.RunStart(run.Snapshot(), devices)
			}
			completed := 0
			for out := range run.Events() {
				completed++
				for _, r := range reporters {
					r.DeviceDone(out, completed, len(devices))
				}
			}
			final := run.Wait()
			for _, r := range reporters {
				r.RunEnd(final)
			}

			switch {
			case final.Status == deploy.RunCancelled:
				return errRunCancelled
			case final.Failed > 0:
				return errPartialFailure
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "Inventory file (.csv or .yaml)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration template file")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Default device model for records without one")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Shared username (per-device values override)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Shared password (prompted if empty)")
	cmd.Flags().StringVar(&enableSecret, "enable", "", "Shared enable secret")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max concurrent sessions (default from settings, 10)")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-device timeout in seconds (default from settings, 60)")
	cmd.Flags().BoolVar(&demo, "demo", false, "Simulate the deployment without connecting to devices")
	cmd.Flags().Int64Var(&demoSeed, "demo-seed", time.Now().UnixNano(), "Random seed for demo mode")
	cmd.Flags().Float64Var(&demoRate, "demo-rate", -1, "Demo success probability in [0,1] (default 0.9)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Publish run progress to this Redis address")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.MarkFlagRequired("inventory")
	cmd.MarkFlagRequired("config")

	return cmd
}
