package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/junzhu/rotor/internal/backtest"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/internal/strategyconfig"
	"github.com/junzhu/rotor/pkg/config"
	"github.com/junzhu/rotor/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run and inspect backtests",
	Long: `Simulates the rotation strategy over historical weekly bars.

The backtest reports:
- strategy return vs the benchmark
- risk metrics (Sharpe, Sortino, max drawdown)
- win rate, turnover, and total trading costs
- the full transaction log

Example:
  go run ./cmd/rotor backtest run --from 2020-01-01 --to 2023-12-31
  go run ./cmd/rotor backtest run --from 2020-01-01 --save`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		Long: `Runs the configured strategy over the given period.

Flags:
  --from        start date (YYYY-MM-DD, required)
  --to          end date (YYYY-MM-DD, default: today)
  --save        persist the run to the results store
  --trades      print the full transaction log

Example:
  go run ./cmd/rotor backtest run --from 2020-01-01 --to 2023-12-31
  go run ./cmd/rotor backtest run --from 2020-01-01 --save --trades`,
		RunE: runBacktest,
	}

	// Flags
	backtestFrom   string
	backtestTo     string
	backtestSave   bool
	backtestTrades bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	backtestRunCmd.Flags().BoolVar(&backtestSave, "save", false, "persist the run to the results store")
	backtestRunCmd.Flags().BoolVar(&backtestTrades, "trades", false, "print the full transaction log")

	backtestRunCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Rotor Backtest ===")

	startDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	endDate := time.Now()
	if backtestTo != "" {
		endDate, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(strategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}
	if err := strategyconfig.Validate(strategy); err != nil {
		return fmt.Errorf("invalid strategy: %w", err)
	}

	fmt.Printf("\nStrategy: %s\n", strategy.Meta.StrategyID)
	fmt.Printf("Period:   %s ~ %s\n", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	fmt.Printf("Universe: %d stocks\n", len(strategy.Universe.Codes))
	fmt.Printf("Capital:  %s\n\n", formatAmount(strategy.Portfolio.InitialCapital))

	source, closeSource, err := newBarSource(cfg, log)
	if err != nil {
		return err
	}
	defer closeSource()

	engine := backtest.NewEngine(strategy, source, log)
	result, err := engine.Run(cmd.Context(), backtest.Options{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result)

	if backtestTrades {
		printTransactions(result)
	}

	if backtestSave {
		if err := saveResult(cmd, cfg, strategy, result); err != nil {
			return err
		}
	}

	return nil
}

func printBacktestResult(result *backtest.Result) {
	s := result.Summary

	fmt.Println("\nBacktest Completed")
	fmt.Println(strings.Repeat("=", 50))

	fmt.Println("\nSummary")
	fmt.Printf("Period: %s ~ %s (%d weeks)\n",
		s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"), s.TradingWeeks)
	fmt.Printf("Duration: %.2f seconds\n", result.Duration.Seconds())

	fmt.Println("\nPerformance")
	fmt.Printf("Final Equity:   %s\n", formatAmount(s.FinalEquity))
	fmt.Printf("Total Return:   %.2f%%\n", s.TotalReturn*100)
	fmt.Printf("CAGR:           %.2f%%\n", s.CAGR*100)
	fmt.Printf("Volatility:     %.2f%%\n", s.Volatility*100)
	fmt.Printf("Sharpe:         %.2f\n", s.Sharpe)
	fmt.Printf("Sortino:        %.2f\n", s.Sortino)
	fmt.Printf("Max Drawdown:   %.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("Weekly VaR 95:  %.2f%% (CVaR %.2f%%)\n", s.WeeklyVaR95*100, s.WeeklyCVaR95*100)
	if s.BenchmarkReturn != 0 {
		fmt.Printf("Benchmark:      %.2f%% (excess %+.2f%%)\n",
			s.BenchmarkReturn*100, s.ExcessReturn*100)
	}

	fmt.Println("\nTrading")
	fmt.Printf("Trades:         %d (%d buys, %d sells)\n", s.TotalTrades, s.BuyTrades, s.SellTrades)
	fmt.Printf("Win Rate:       %.1f%%\n", s.WinRate*100)
	fmt.Printf("Turnover:       %.2f\n", s.Turnover)
	fmt.Printf("Total Costs:    %s\n", formatAmount(s.TotalCosts))

	if len(result.Positions) > 0 {
		fmt.Println("\nFinal Positions")
		for _, pos := range result.Positions {
			fmt.Printf("  %-10s %12.0f shares  avg cost %10.2f\n", pos.Code, pos.Shares, pos.AvgCost)
		}
	}
	fmt.Printf("  %-10s %s\n", "cash", formatAmount(result.FinalCash))

	if len(result.Skipped) > 0 {
		fmt.Println("\nSkipped Stocks")
		for code, reason := range result.Skipped {
			fmt.Printf("  %-10s %s\n", code, reason)
		}
	}
}

func printTransactions(result *backtest.Result) {
	fmt.Println("\nTransactions")
	fmt.Printf("%-4s %-12s %-10s %-5s %10s %10s %12s\n",
		"#", "Date", "Code", "Side", "Shares", "Price", "PnL")
	fmt.Println(strings.Repeat("-", 70))
	for _, tx := range result.Transactions {
		pnl := ""
		if tx.Side == "SELL" {
			pnl = fmt.Sprintf("%+.2f", tx.RealizedPnL)
		}
		fmt.Printf("%-4d %-12s %-10s %-5s %10d %10.2f %12s\n",
			tx.Seq, tx.Date.Format("2006-01-02"), tx.Code, tx.Side, tx.Shares, tx.Price, pnl)
	}
}

func saveResult(cmd *cobra.Command, cfg *config.Config, strategy *strategyconfig.Config, result *backtest.Result) error {
	results, err := store.NewSQLiteResults(cfg.ResultsPath)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer results.Close()

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}

	runID, err := results.SaveRun(cmd.Context(), store.RunRecord{
		CreatedAt:      time.Now(),
		StrategyID:     strategy.Meta.StrategyID,
		ConfigHash:     hash,
		StartDate:      result.StartDate,
		EndDate:        result.EndDate,
		InitialCapital: strategy.Portfolio.InitialCapital,
		FinalEquity:    result.FinalEquity,
		TotalReturn:    result.Summary.TotalReturn,
		MaxDrawdown:    result.Summary.MaxDrawdown,
		Sharpe:         result.Summary.Sharpe,
		Trades:         len(result.Transactions),
	}, result.Transactions)
	if err != nil {
		return fmt.Errorf("persist run: %w", err)
	}

	fmt.Printf("\nRun saved as #%d (%s)\n", runID, cfg.ResultsPath)
	return nil
}
