package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junzhu/rotor/internal/strategyconfig"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the strategy config",
	Long: `Loads the strategy config, checks every constraint, and prints the
config hash that backtest runs will be stamped with.

Example:
  go run ./cmd/rotor validate
  go run ./cmd/rotor validate --strategy config/strategy.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(strategyFile)
	if err != nil {
		return fmt.Errorf("load strategy: %w", err)
	}

	if err := strategyconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid strategy: %w", err)
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}

	fmt.Println("Strategy config is valid")
	fmt.Printf("Strategy:   %s\n", cfg.Meta.StrategyID)
	fmt.Printf("Universe:   %d stocks (benchmark %s)\n", len(cfg.Universe.Codes), cfg.Universe.Benchmark)
	fmt.Printf("Thresholds: buy < %.2f, sell > %.2f\n", cfg.Valuation.BuyThreshold, cfg.Valuation.SellThreshold)
	fmt.Printf("Capital:    %s\n", formatAmount(cfg.Portfolio.InitialCapital))
	fmt.Printf("Hash:       %s\n", hash)

	return nil
}
