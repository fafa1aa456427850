package strategyconfig

import (
	"math"

	"github.com/junzhu/rotor/internal/contracts"
)

const weightTolerance = 1e-4

// Validate checks all required constraints. A failure stops the program
// before any simulation runs.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return &contracts.ConfigurationError{Field: "meta.strategy_id", Message: "required"}
	}
	if len(cfg.Universe.Codes) == 0 {
		return &contracts.ConfigurationError{Field: "universe.codes", Message: "at least one stock required"}
	}
	seen := make(map[string]bool, len(cfg.Universe.Codes))
	for _, code := range cfg.Universe.Codes {
		if seen[code] {
			return &contracts.ConfigurationError{Field: "universe.codes", Message: "duplicate code " + code}
		}
		seen[code] = true
	}

	// Valuation gate: buy < 1.0 < sell
	if cfg.Valuation.BuyThreshold <= 0 || cfg.Valuation.BuyThreshold >= 1.0 {
		return &contracts.ConfigurationError{Field: "valuation.buy_threshold", Message: "must be in (0, 1)"}
	}
	if cfg.Valuation.SellThreshold <= cfg.Valuation.BuyThreshold {
		return &contracts.ConfigurationError{Field: "valuation.sell_threshold", Message: "must exceed buy_threshold"}
	}
	for code, v := range cfg.Valuation.IntrinsicValues {
		if v <= 0 {
			return &contracts.ConfigurationError{Field: "valuation.intrinsic_values." + code, Message: "must be > 0"}
		}
	}

	// Industry RSI bands must be ordered and within [0, 100].
	for industry, th := range cfg.Industry.Thresholds {
		if th.Oversold < 0 || th.ExtremeOverbought > 100 {
			return &contracts.ConfigurationError{Field: "industry.thresholds." + industry, Message: "bands must lie in [0, 100]"}
		}
		if !(th.ExtremeOversold < th.Oversold && th.Oversold < th.Overbought && th.Overbought < th.ExtremeOverbought) {
			return &contracts.ConfigurationError{Field: "industry.thresholds." + industry,
				Message: "bands must satisfy extreme_oversold < oversold < overbought < extreme_overbought"}
		}
	}

	if err := validateIndicator(&cfg.Indicator); err != nil {
		return err
	}

	if cfg.Signal.VolumeSurgeSell <= 0 || cfg.Signal.VolumeFloorBuy <= 0 {
		return &contracts.ConfigurationError{Field: "signal", Message: "volume multipliers must be > 0"}
	}

	return validatePortfolio(cfg)
}

func validateIndicator(ind *Indicator) error {
	if ind.MACDFast <= 0 || ind.MACDSlow <= ind.MACDFast || ind.MACDSignal <= 0 {
		return &contracts.ConfigurationError{Field: "indicators.macd", Message: "require 0 < fast < slow and signal > 0"}
	}
	if ind.EMAPeriod <= 0 || ind.RSIPeriod <= 0 || ind.BollPeriod <= 1 || ind.VolumeMAPeriod <= 0 {
		return &contracts.ConfigurationError{Field: "indicators", Message: "all periods must be positive"}
	}
	if ind.BollMult <= 0 {
		return &contracts.ConfigurationError{Field: "indicators.boll_mult", Message: "must be > 0"}
	}
	if ind.DivergenceLookback < 2 {
		return &contracts.ConfigurationError{Field: "indicators.divergence_lookback", Message: "must be >= 2"}
	}
	return nil
}

func validatePortfolio(cfg *Config) error {
	p := &cfg.Portfolio
	if p.InitialCapital <= 0 {
		return &contracts.ConfigurationError{Field: "portfolio.initial_capital", Message: "must be > 0"}
	}
	if p.LotSize <= 0 {
		return &contracts.ConfigurationError{Field: "portfolio.lot_size", Message: "must be > 0"}
	}
	if p.RotationFraction <= 0 || p.RotationFraction > 1 {
		return &contracts.ConfigurationError{Field: "portfolio.rotation_fraction", Message: "must be in (0, 1]"}
	}
	if p.MaxWeight <= 0 || p.MaxWeight > 1 {
		return &contracts.ConfigurationError{Field: "portfolio.max_weight", Message: "must be in (0, 1]"}
	}
	if p.MinWeight < 0 || p.MinWeight >= p.MaxWeight {
		return &contracts.ConfigurationError{Field: "portfolio.min_weight", Message: "must be in [0, max_weight)"}
	}
	if p.MaxPositions <= 0 {
		return &contracts.ConfigurationError{Field: "portfolio.max_positions", Message: "must be > 0"}
	}
	if p.CashReserve < 0 || p.CashReserve >= 1 {
		return &contracts.ConfigurationError{Field: "portfolio.cash_reserve", Message: "must be in [0, 1)"}
	}
	if p.SellFraction <= 0 || p.SellFraction > 1 {
		return &contracts.ConfigurationError{Field: "portfolio.sell_fraction", Message: "must be in (0, 1]"}
	}

	// Initial weights: if given, must cover only known codes (plus "cash")
	// and sum to 1 within tolerance.
	if len(p.InitialWeights) > 0 {
		known := make(map[string]bool, len(cfg.Universe.Codes))
		for _, code := range cfg.Universe.Codes {
			known[code] = true
		}
		sum := 0.0
		for code, w := range p.InitialWeights {
			if w < 0 {
				return &contracts.ConfigurationError{Field: "portfolio.initial_weights." + code, Message: "must be >= 0"}
			}
			if code != "cash" && !known[code] {
				return &contracts.ConfigurationError{Field: "portfolio.initial_weights." + code, Message: "code not in universe"}
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return &contracts.ConfigurationError{Field: "portfolio.initial_weights", Message: "weights must sum to 1.0"}
		}
	}

	if cfg.Costs.CommissionRate < 0 || cfg.Costs.StampTaxRate < 0 ||
		cfg.Costs.SlippageRate < 0 || cfg.Costs.TransferFeeRate < 0 || cfg.Costs.MinCommission < 0 {
		return &contracts.ConfigurationError{Field: "costs", Message: "rates must be >= 0"}
	}

	return nil
}
