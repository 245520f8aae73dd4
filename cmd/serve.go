package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and admin HTTP server",
		Long: `Starts the daily cron schedule and the admin API. The pipeline runs
at the configured cron expression; the API serves health probes,
metrics, on-demand runs, and Merchant Center checks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfgFile)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil {
					a.Logger.Warn("shutdown error", zap.Error(cerr))
				}
			}()

			scheduler := cron.New()
			_, err = scheduler.AddFunc(a.Config.Schedule.Cron, func() {
				summary, runErr := a.Pipeline.Run(ctx, false)
				if runErr != nil {
					a.Logger.Error("scheduled run failed", zap.Error(runErr))
					return
				}
				a.Logger.Info("scheduled run finished",
					zap.Bool("success", summary.Success),
					zap.Int("tasks_executed", summary.TasksExecuted))
			})
			if err != nil {
				return fmt.Errorf("schedule %q: %w", a.Config.Schedule.Cron, err)
			}
			scheduler.Start()
			a.Logger.Info("scheduler started", zap.String("cron", a.Config.Schedule.Cron))

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
				Handler:           a.Server().Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("http server started", zap.Int("port", a.Config.Server.Port))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			}
			a.Logger.Info("shutdown initiated")

			cronCtx := scheduler.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.Error("server shutdown error", zap.Error(err))
			}
			// Let an in-flight scheduled run finish before closing stores.
			select {
			case <-cronCtx.Done():
			case <-shutdownCtx.Done():
			}
			a.Logger.Info("shutdown complete")
			return nil
		},
	}
	return cmd
}
