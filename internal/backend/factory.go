package backend

import (
	"context"
	"fmt"
	"log/slog"

	"wattbudget/internal/budget/memory"
	"wattbudget/internal/budget/sheets"
	"wattbudget/internal/budget/ynab"
	"wattbudget/internal/config"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.BudgetBackend)
	switch backendType {
	case YNABBackend:
		return f.createYNABBackend(cfg)
	case SheetsBackend:
		return f.createSheetsBackend(ctx)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("invalid backend type: %s", backendType)
	}
}

func (f *DefaultFactory) createYNABBackend(cfg *config.Config) (*Result, error) {
	client := ynab.NewClient(ynab.Config{
		BaseURL:     cfg.YNABBaseURL,
		AccessToken: cfg.YNABAccessToken,
		BudgetID:    cfg.YNABBudgetID,
	})

	f.logger.Info("Initialized YNAB backend", "budget_id", cfg.YNABBudgetID)

	return &Result{Backend: client}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context) (*Result, error) {
	client, err := sheets.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &Result{Backend: client}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{Backend: memory.New()}, nil
}
