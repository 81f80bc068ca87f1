package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/netzero-testops/internal/carbon"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "netzero-testops %s (calculator %s)\n", version, carbon.CalculatorVersion)
			return err
		},
	}
}
