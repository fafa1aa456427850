package strategyconfig

import (
	"time"

	"github.com/junzhu/rotor/internal/contracts"
)

// Config is the full rotation-strategy configuration. Every recognized
// option is an explicit field with a validated value; unknown YAML keys fail
// the load.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Valuation Valuation `yaml:"valuation" json:"valuation"`
	Industry  Industry  `yaml:"industry" json:"industry"`
	Indicator Indicator `yaml:"indicators" json:"indicators"`
	Signal    Signal    `yaml:"signal" json:"signal"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Costs     Costs     `yaml:"costs" json:"costs"`
}

// Meta identifies the strategy.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe is the fixed stock pool the rotation runs over.
type Universe struct {
	Codes     []string `yaml:"codes" json:"codes"`
	Benchmark string   `yaml:"benchmark" json:"benchmark"` // optional index/ETF code
}

// Valuation holds the price/value gate inputs: per-stock intrinsic values and
// the two ratio thresholds (buy < 1.0 < sell).
type Valuation struct {
	BuyThreshold    float64            `yaml:"buy_threshold" json:"buy_threshold"`
	SellThreshold   float64            `yaml:"sell_threshold" json:"sell_threshold"`
	IntrinsicValues map[string]float64 `yaml:"intrinsic_values" json:"intrinsic_values"`
}

// Industry maps stocks to industries and industries to RSI threshold bands.
type Industry struct {
	Stocks     map[string]string                      `yaml:"stocks" json:"stocks"`
	Thresholds map[string]contracts.IndustryThreshold `yaml:"thresholds" json:"thresholds"`
}

// Indicator holds the indicator periods. Defaults match the documented
// formulas: EMA20, RSI14, MACD(12,26,9), Bollinger(20, 2σ), volume MA4.
type Indicator struct {
	EMAPeriod          int     `yaml:"ema_period" json:"ema_period"`
	RSIPeriod          int     `yaml:"rsi_period" json:"rsi_period"`
	MACDFast           int     `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow           int     `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal         int     `yaml:"macd_signal" json:"macd_signal"`
	BollPeriod         int     `yaml:"boll_period" json:"boll_period"`
	BollMult           float64 `yaml:"boll_mult" json:"boll_mult"`
	VolumeMAPeriod     int     `yaml:"volume_ma_period" json:"volume_ma_period"`
	DivergenceLookback int     `yaml:"divergence_lookback" json:"divergence_lookback"`
}

// Signal holds the extreme price+volume dimension multipliers.
type Signal struct {
	VolumeSurgeSell float64 `yaml:"volume_surge_sell" json:"volume_surge_sell"` // sell: volume ≥ MA × this
	VolumeFloorBuy  float64 `yaml:"volume_floor_buy" json:"volume_floor_buy"`   // buy: volume ≥ MA × this
}

// Portfolio holds sizing and construction limits.
type Portfolio struct {
	InitialCapital   float64            `yaml:"initial_capital" json:"initial_capital"`
	InitialWeights   map[string]float64 `yaml:"initial_weights" json:"initial_weights"` // includes "cash"
	RotationFraction float64            `yaml:"rotation_fraction" json:"rotation_fraction"`
	LotSize          int64              `yaml:"lot_size" json:"lot_size"`
	MinWeight        float64            `yaml:"min_weight" json:"min_weight"` // skip buys that would open below this
	MaxWeight        float64            `yaml:"max_weight" json:"max_weight"`
	MaxPositions     int                `yaml:"max_positions" json:"max_positions"`
	CashReserve      float64            `yaml:"cash_reserve" json:"cash_reserve"` // fraction of equity kept uninvested
	SellFraction     float64            `yaml:"sell_fraction" json:"sell_fraction"`
}

// Costs holds the per-trade cost model rates.
type Costs struct {
	CommissionRate  float64 `yaml:"commission_rate" json:"commission_rate"`
	MinCommission   float64 `yaml:"min_commission" json:"min_commission"`
	StampTaxRate    float64 `yaml:"stamp_tax_rate" json:"stamp_tax_rate"` // sell side only
	SlippageRate    float64 `yaml:"slippage_rate" json:"slippage_rate"`
	TransferFeeRate float64 `yaml:"transfer_fee_rate" json:"transfer_fee_rate"`
}

// Threshold resolves the RSI band for a stock, falling back to the global
// default when the stock's industry is unknown or unconfigured.
func (c *Config) Threshold(code string) contracts.IndustryThreshold {
	industry, ok := c.Industry.Stocks[code]
	if !ok {
		return contracts.DefaultThreshold
	}
	th, ok := c.Industry.Thresholds[industry]
	if !ok {
		return contracts.DefaultThreshold
	}
	th.Industry = industry
	return th
}

// DecisionSnapshot ties a run to the exact configuration that produced it.
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}
