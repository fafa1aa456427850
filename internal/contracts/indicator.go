package contracts

import "time"

// IndicatorSnapshot holds the technical indicator values for one stock on one
// date, derived strictly from bars dated at or before that date.
type IndicatorSnapshot struct {
	Code string    `json:"code"`
	Date time.Time `json:"date"`

	EMA20 float64 `json:"ema20"`
	RSI14 float64 `json:"rsi14"`

	MACDDif  float64 `json:"macd_dif"`
	MACDDea  float64 `json:"macd_dea"`
	MACDHist float64 `json:"macd_hist"`

	BBUpper float64 `json:"bb_upper"`
	BBMid   float64 `json:"bb_mid"`
	BBLower float64 `json:"bb_lower"`

	VolumeMA4 float64 `json:"volume_ma4"`
}

// ValuationSnapshot is the price/value reading for one stock on one date.
type ValuationSnapshot struct {
	Code           string    `json:"code"`
	Date           time.Time `json:"date"`
	Close          float64   `json:"close"`
	IntrinsicValue float64   `json:"intrinsic_value"`
	Ratio          float64   `json:"price_value_ratio"` // Close / IntrinsicValue
}

// IndustryThreshold holds the RSI bands for one industry, in RSI points.
type IndustryThreshold struct {
	Industry          string  `yaml:"-" json:"industry"`
	Overbought        float64 `yaml:"overbought" json:"overbought"`
	Oversold          float64 `yaml:"oversold" json:"oversold"`
	ExtremeOverbought float64 `yaml:"extreme_overbought" json:"extreme_overbought"`
	ExtremeOversold   float64 `yaml:"extreme_oversold" json:"extreme_oversold"`
}

// DefaultThreshold is the global fallback used when a stock's industry is
// unknown or has no configured band.
var DefaultThreshold = IndustryThreshold{
	Industry:          "default",
	Overbought:        70,
	Oversold:          30,
	ExtremeOverbought: 80,
	ExtremeOversold:   20,
}
