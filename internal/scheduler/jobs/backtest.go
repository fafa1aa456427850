// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/junzhu/rotor/internal/backtest"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/internal/strategyconfig"
	"github.com/junzhu/rotor/pkg/logger"
)

// BacktestJob re-runs the configured strategy over a trailing window after
// each weekly bar lands and persists the result for the API.
type BacktestJob struct {
	configPath string
	source     store.BarSource
	results    *store.SQLiteResults
	lookback   time.Duration
	logger     *logger.Logger
}

// NewBacktestJob creates a new weekly backtest job
func NewBacktestJob(configPath string, source store.BarSource, results *store.SQLiteResults, log *logger.Logger) *BacktestJob {
	return &BacktestJob{
		configPath: configPath,
		source:     source,
		results:    results,
		lookback:   5 * 365 * 24 * time.Hour,
		logger:     log,
	}
}

// Name returns the job name
func (j *BacktestJob) Name() string {
	return "weekly_backtest"
}

// Schedule returns the cron schedule expression
func (j *BacktestJob) Schedule() string {
	// Friday 18:00, after the weekly bar is final.
	return "0 0 18 * * FRI"
}

// Run executes the job
func (j *BacktestJob) Run(ctx context.Context) error {
	// Reload on every run so config edits take effect without a restart.
	cfg, _, err := strategyconfig.Load(j.configPath)
	if err != nil {
		return fmt.Errorf("failed to load strategy config: %w", err)
	}
	if err := strategyconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid strategy config: %w", err)
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("failed to hash strategy config: %w", err)
	}

	end := time.Now().Truncate(24 * time.Hour)
	start := end.Add(-j.lookback)

	engine := backtest.NewEngine(cfg, j.source, j.logger)
	result, err := engine.Run(ctx, backtest.Options{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	runID, err := j.results.SaveRun(ctx, store.RunRecord{
		CreatedAt:      time.Now(),
		StrategyID:     cfg.Meta.StrategyID,
		ConfigHash:     hash,
		StartDate:      result.StartDate,
		EndDate:        result.EndDate,
		InitialCapital: cfg.Portfolio.InitialCapital,
		FinalEquity:    result.FinalEquity,
		TotalReturn:    result.Summary.TotalReturn,
		MaxDrawdown:    result.Summary.MaxDrawdown,
		Sharpe:         result.Summary.Sharpe,
		Trades:         len(result.Transactions),
	}, result.Transactions)
	if err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       runID,
		"total_return": fmt.Sprintf("%.2f%%", result.Summary.TotalReturn*100),
		"trades":       len(result.Transactions),
	}).Info("Weekly backtest persisted")

	return nil
}
