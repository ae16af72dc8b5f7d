package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/cli"
	"github.com/fleetpush/fleetpush/pkg/deploy"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate -c <template>",
		Short: "Validate a configuration template",
		Long: `Validate runs basic syntax checks over a template: unclosed quotes,
tab characters, missing hostname, and templates with no effective
configuration lines.

  fleetpush validate -c baseline.cfg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			template, err := readTemplate(configPath)
			if err != nil {
				return err
			}

			warnings, err := deploy.ValidateTemplate(template)
			for _, w := range warnings {
				fmt.Printf("  %s %s\n", cli.Yellow("WARN"), w)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", configPath, err)
			}

			lines := deploy.ConfigLines(template)
			fmt.Printf("  %s %s: %d effective lines\n", cli.Green("OK"), configPath, len(lines))
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "", "Configuration template file")
	cmd.MarkFlagRequired("config")
	return cmd
}
