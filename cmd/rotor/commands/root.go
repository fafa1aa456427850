package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/pkg/config"
	"github.com/junzhu/rotor/pkg/database"
	"github.com/junzhu/rotor/pkg/logger"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rotor",
	Short: "Weekly stock rotation backtester",
	Long: `Rotor - weekly stock rotation backtester

Scores a fixed universe of stocks each week on valuation, RSI, MACD,
and price/volume extremes, and simulates rotating a shared capital
pool through the resulting buy and sell signals.

Usage:
  go run ./cmd/rotor [command]

Examples:
  go run ./cmd/rotor backtest run --from 2020-01-01 --to 2023-12-31
  go run ./cmd/rotor validate
  go run ./cmd/rotor api
  go run ./cmd/rotor scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "config/strategy.yaml", "strategy config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newBarSource builds the configured bar source. The returned close func is
// a no-op for the CSV source.
func newBarSource(cfg *config.Config, log *logger.Logger) (store.BarSource, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
		return store.NewPostgresBars(db.Pool), db.Close, nil
	}
	return store.NewCSVBars(cfg.BarsDir), func() {}, nil
}
