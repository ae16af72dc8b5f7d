package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persistent settings",
		Long: `Settings are stored in ~/.fleetpush/settings.json.

Keys:
  default_inventory   inventory file used when -i is omitted
  default_model       device model assumed for records without one
  concurrency         default worker pool size
  task_timeout        default per-device timeout in seconds
  redis_addr          Redis address for run progress publishing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return err
			}
			fmt.Printf("default_inventory: %s\n", s.DefaultInventory)
			fmt.Printf("default_model:     %s\n", s.DefaultModel)
			fmt.Printf("concurrency:       %d\n", s.GetConcurrency())
			fmt.Printf("task_timeout:      %ds\n", s.GetTaskTimeoutSeconds())
			fmt.Printf("redis_addr:        %s\n", s.RedisAddr)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a persistent setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			switch key {
			case "default_inventory":
				s.DefaultInventory = value
			case "default_model":
				s.DefaultModel = value
			case "concurrency":
				n, err := strconv.Atoi(value)
				if err != nil || n < 1 {
					return fmt.Errorf("concurrency must be a positive integer")
				}
				s.Concurrency = n
			case "task_timeout":
				n, err := strconv.Atoi(value)
				if err != nil || n < 1 {
					return fmt.Errorf("task_timeout must be a positive integer")
				}
				s.TaskTimeoutSeconds = n
			case "redis_addr":
				s.RedisAddr = value
			default:
				return fmt.Errorf("unknown setting %q", key)
			}
			return s.Save()
		},
	})

	return cmd
}
