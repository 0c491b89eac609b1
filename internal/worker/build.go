package worker

import (
	"context"
	"fmt"

	"wattbudget/internal/amqp"
	"wattbudget/internal/backend"
	"wattbudget/internal/config"
	"wattbudget/internal/log"
	"wattbudget/internal/meter/smt"
	"wattbudget/internal/notify"
	"wattbudget/internal/services"
	"wattbudget/internal/storage"
)

// Build wires a Runner from validated configuration. The returned cleanup
// closes whatever was opened; it is safe to call even on partial failure
// paths because Build closes eagerly on error before returning.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runner, func(), error) {
	rate, err := cfg.Rate()
	if err != nil {
		return nil, nil, fmt.Errorf("parse kWh rate: %w", err)
	}

	reader := smt.NewClient(smt.Config{
		BaseURL:  cfg.SMTBaseURL,
		Username: cfg.SMTUsername,
		Password: cfg.SMTPassword,
		ESIID:    cfg.SMTESIID,
	})

	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create budget backend: %w", err)
	}

	sync := services.NewTargetSync(reader, result.Backend, services.Config{
		Rate:              rate,
		CategoryID:        cfg.YNABCategoryID,
		CompletePeriodLag: cfg.CompletePeriodLag,
	})

	policy := services.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.RunMaxAttempts
	policy.BaseDelay = cfg.RunBackoffBase

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	if result.Cleanup != nil {
		cleanups = append(cleanups, func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", "error", err)
			}
		})
	}

	var history *storage.RunHistoryRepository
	if cfg.SQLiteDBPath != "" {
		history, err = storage.NewRunHistoryRepository(cfg.SQLiteDBPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open run history: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := history.Close(); err != nil {
				logger.Warn("Closing run history failed", "error", err)
			}
		})
		logger.Info("Run history enabled", "db_path", cfg.SQLiteDBPath)
	}

	// AMQP is best effort: a broker that is down must not block the run.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without outcome events", "error", err)
			events = nil
		} else {
			cleanups = append(cleanups, func() {
				if err := events.Close(); err != nil {
					logger.Warn("Closing AMQP client failed", "error", err)
				}
			})
			logger.Info("Outcome events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	pinger := notify.New(cfg.HealthcheckURL)

	return NewRunner(sync, policy, history, pinger, events), cleanup, nil
}
