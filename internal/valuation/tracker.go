// Package valuation computes the price/value ratio gate inputs: intrinsic
// value lookups and industry-specific RSI threshold bands.
package valuation

import (
	"time"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

// Tracker resolves intrinsic values and industry thresholds from the strategy
// configuration. It is stateless and safe for concurrent use.
type Tracker struct {
	cfg *strategyconfig.Config
}

// NewTracker creates a Tracker backed by the given strategy configuration.
func NewTracker(cfg *strategyconfig.Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Snapshot computes the valuation reading for a stock at a close price.
// Returns MissingValuationError when no intrinsic value is configured; the
// caller treats that as "no valuation signal possible", not as fatal.
func (t *Tracker) Snapshot(code string, date time.Time, close float64) (contracts.ValuationSnapshot, error) {
	iv, ok := t.cfg.Valuation.IntrinsicValues[code]
	if !ok || iv <= 0 {
		return contracts.ValuationSnapshot{}, &contracts.MissingValuationError{Code: code}
	}
	return contracts.ValuationSnapshot{
		Code:           code,
		Date:           date,
		Close:          close,
		IntrinsicValue: iv,
		Ratio:          close / iv,
	}, nil
}

// Threshold resolves the RSI band for a stock via its industry, falling back
// to the documented global default (70/30, extreme 80/20).
func (t *Tracker) Threshold(code string) contracts.IndustryThreshold {
	return t.cfg.Threshold(code)
}

// BuyThreshold returns the price/value ratio below which a stock is a buy
// candidate.
func (t *Tracker) BuyThreshold() float64 {
	return t.cfg.Valuation.BuyThreshold
}

// SellThreshold returns the price/value ratio above which a stock is a sell
// candidate.
func (t *Tracker) SellThreshold() float64 {
	return t.cfg.Valuation.SellThreshold
}
