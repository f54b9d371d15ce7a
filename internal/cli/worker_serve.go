package cli

import (
	"context"
	"fmt"
	"time"

	"draft_worker/internal/bootstrap"
	"draft_worker/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on a schedule and serve the admin API",
	Long: `Start the cron scheduler (SCHEDULE, default "@every 15m") and the HTTP API on
PORT. Runs can also be triggered with POST /api/v1/runs. SIGINT or SIGTERM
stops the scheduler, waits for an in-flight run and shuts the API down.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		deps, cleanup, err := bootstrap.NewDependencies(context.WithoutCancel(cmd.Context()), cfg)
		if err != nil {
			return fmt.Errorf("initializing dependencies: %w", err)
		}
		defer cleanup()

		worker, err := bootstrap.NewWorker(cfg.Schedule, deps.TriageService, cfg.RunTimeout, logger.Component("scheduler"))
		if err != nil {
			return err
		}
		app := bootstrap.NewAPI(cfg, deps.TriageService, deps.HealthChecks(), deps.Latency)

		listenErr := make(chan error, 1)
		go func() {
			addr := ":" + cfg.Port
			logger.Info("Starting API server on %s", addr)
			listenErr <- app.Listen(addr)
		}()
		worker.Start()

		select {
		case <-cmd.Context().Done():
			logger.Info("Shutting down (timeout: %v)...", shutdownTimeout)
		case err := <-listenErr:
			worker.Stop()
			return fmt.Errorf("API server: %w", err)
		}

		done := make(chan struct{})
		go func() {
			worker.Stop()
			if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
				logger.Error("Error shutting down API: %v", err)
			}
			close(done)
		}()

		select {
		case <-done:
			logger.Info("Shut down gracefully")
		case <-time.After(shutdownTimeout):
			logger.Warn("Shutdown timed out, forcing exit")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
