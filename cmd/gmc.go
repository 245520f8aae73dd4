package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/app"
	"github.com/lumera/seopilot/internal/merchant"
)

func newGMCCmd() *cobra.Command {
	var autoFix bool
	var sendAlerts bool
	var dryRun bool
	var output string

	cmd := &cobra.Command{
		Use:   "gmc",
		Short: "Run a Google Merchant Center health check",
		Long: `Checks every product in the Merchant Center feed for item-level
issues, optionally applies the known safe fixes, and optionally alerts
on critical issues. Exits 1 when critical issues remain.`,
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

			result, err := a.Merchant.Check(cmd.Context(), merchant.Options{
				AutoFix:    autoFix,
				SendAlerts: sendAlerts,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			if output != "" {
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("write report to %s: %w", output, err)
				}
			} else {
				fmt.Fprintln(os.Stdout, string(data))
			}

			if result.CriticalIssues > 0 {
				return fmt.Errorf("%d critical issues found", result.CriticalIssues)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoFix, "auto-fix", false, "apply the known safe fixes")
	cmd.Flags().BoolVar(&sendAlerts, "send-alerts", false, "publish an alert when critical issues are found")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report planned fixes without applying them")
	cmd.Flags().StringVar(&output, "output", "", "write the JSON report to this file instead of stdout")

	return cmd
}
