// wattbudget runs the pipeline once and exits: fetch electricity usage
// history, compute the trailing-12-month average cost, and assert it as the
// budget category target. Exit code 0 means the target is in the desired
// state (written or already there); anything else is 1.
package main

import (
	"context"
	"os"
	"time"

	"wattbudget/internal/cli"
	"wattbudget/internal/core"
	"wattbudget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	runner, cleanup, err := worker.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	outcome := runner.RunOnce(ctx)
	switch outcome.Reason {
	case core.ReasonUpdated:
		logger.Info("Target updated",
			"amount_cents", outcome.New.Cents,
			"kwh_per_month", outcome.Average.KWhPerMonth.String())
	case core.ReasonNoChange:
		logger.Info("Target already current", "amount_cents", outcome.New.Cents)
	case core.ReasonSkippedInvalid:
		logger.Error("Computed target is invalid, nothing written",
			"amount_cents", outcome.New.Cents)
	default:
		logger.Error("Run failed", "reason", outcome.Reason, "error", outcome.Err)
	}

	if !outcome.Success() {
		os.Exit(1)
	}
}
