package main

import (
	"runtime"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			pterm.Printfln("pgstudio %s (%s, %s/%s)", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
