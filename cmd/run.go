package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/app"
)

func newRunCmd() *cobra.Command {
	var dryRun bool
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one full audit pipeline run",
		Long: `Runs the pipeline once: crawl, analyze, decide, execute, validate,
measure, learn. Exits 0 when the run succeeds and 1 otherwise.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cmd.Context(), cfgFile)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil {
					a.Logger.Warn("shutdown error", zap.Error(cerr))
				}
			}()

			summary, runErr := a.Pipeline.Run(cmd.Context(), dryRun)

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return fmt.Errorf("encode summary: %w", err)
				}
			}

			if runErr != nil {
				return runErr
			}
			if !summary.Success {
				return fmt.Errorf("run completed with failures: %d errors", len(summary.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan and report without executing tasks")
	cmd.Flags().BoolVar(&outputJSON, "output-json", false, "print the run summary as JSON to stdout")

	return cmd
}
