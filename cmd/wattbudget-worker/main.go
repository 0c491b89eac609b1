// wattbudget-worker runs the pipeline on a schedule. Each tick fetches usage
// history, recomputes the trailing-12-month average, and asserts the budget
// category target. Runs are idempotent, so a daily interval against monthly
// data is harmless.
package main

import (
	"context"
	"os"
	"time"

	"wattbudget/internal/cli"
	"wattbudget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting wattbudget-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner, cleanup, err := worker.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	scheduler := worker.NewScheduler(runner, worker.SchedulerConfig{
		Interval:   cfg.SyncInterval,
		RunOnStart: true,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", "error", err)
		os.Exit(1)
	}
	logger.Info("wattbudget-worker shutdown complete")
}
