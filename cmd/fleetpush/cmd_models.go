package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fleetpush/fleetpush/pkg/profile"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List supported device models",
		Long: `Models lists the builtin device catalog: the model names accepted in
inventory files, the command-syntax family each resolves to, and its
capability tags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := profile.ModelNames()

			width := 0
			for _, name := range names {
				if len(name) > width {
					width = len(name)
				}
			}

			fmt.Printf("  %-*s  %-16s  %s\n", width, "MODEL", "DEVICE TYPE", "CAPABILITIES")
			for _, name := range names {
				m, _ := profile.LookupModel(name)
				fmt.Printf("  %-*s  %-16s  %s\n", width, name, m.DeviceType,
					strings.Join(m.Capabilities, ", "))
			}

			fmt.Printf("\n  device types: %s\n", strings.Join(profile.DefaultRegistry().DeviceTypes(), ", "))
			return nil
		},
	}
}
