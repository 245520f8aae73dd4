// Package cmd defines the CLI commands for the seopilot executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seopilot",
		Short: "Automated daily SEO audit pipeline",
		Long: `seopilot crawls the storefront every day, analyzes the snapshot for
SEO issues, plans the highest-value low-risk fixes, emits patch
artifacts for the deploy pipeline, and tracks results across runs.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGMCCmd())

	return cmd
}

// Execute is the main entry point. Any failure exits with code 1.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
