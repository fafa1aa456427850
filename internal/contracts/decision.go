package contracts

import "time"

// Action is the outcome of scoring one stock on one date.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Side identifies the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// DimensionFlags records which scoring dimensions were true for the side
// under evaluation. Valuation is the hard gate; the other three are the
// confirming dimensions.
type DimensionFlags struct {
	Valuation          bool `json:"valuation"`
	MomentumRSI        bool `json:"momentum_rsi"`
	MomentumMACD       bool `json:"momentum_macd"`
	ExtremePriceVolume bool `json:"extreme_price_volume"`
}

// Confirming returns how many non-gate dimensions were true.
func (f DimensionFlags) Confirming() int {
	n := 0
	if f.MomentumRSI {
		n++
	}
	if f.MomentumMACD {
		n++
	}
	if f.ExtremePriceVolume {
		n++
	}
	return n
}

// SignalDecision is the scorer output for one (stock, date). Produced once,
// consumed by the simulation loop, optionally retained for audit.
type SignalDecision struct {
	Code       string         `json:"code"`
	Date       time.Time      `json:"date"`
	Action     Action         `json:"action"`
	GatePassed bool           `json:"gate_passed"`
	Dimensions DimensionFlags `json:"dimensions"`
	Ratio      float64        `json:"price_value_ratio"`
	GateMargin float64        `json:"gate_margin"` // distance of ratio past its threshold
	Reason     string         `json:"reason"`
}

// Confidence ranks decisions for same-date execution ordering: the number of
// confirming dimensions that were true.
func (d SignalDecision) Confidence() int {
	return d.Dimensions.Confirming()
}
