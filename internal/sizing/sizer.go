// Package sizing turns signal decisions into lot-rounded trade sizes under
// the portfolio's cash, weight, and position-count limits.
package sizing

import (
	"github.com/junzhu/rotor/internal/cost"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

// Snapshot is the portfolio view the sizer works from, captured before any
// trades execute on a date. Values are marked to the date's close prices.
type Snapshot struct {
	Cash      float64
	Equity    float64
	Positions int                // number of held names
	Shares    map[string]int64   // tradable (lot-rounded) shares per code
	Value     map[string]float64 // mark value per code
}

// Sizer computes trade sizes. It clips every buy so the full outlay,
// including costs, fits in available cash; the ledger never sees a trade it
// must reject.
type Sizer struct {
	cfg   strategyconfig.Portfolio
	costs *cost.Model
}

// NewSizer creates a Sizer.
func NewSizer(cfg strategyconfig.Portfolio, costs *cost.Model) *Sizer {
	return &Sizer{cfg: cfg, costs: costs}
}

// LotSize returns the configured minimum tradable share increment.
func (s *Sizer) LotSize() int64 {
	return s.cfg.LotSize
}

// SizeBuy returns the share count to buy, a multiple of the lot size, or 0
// to skip. Limits applied in order: rotation fraction of equity, cash minus
// reserve, per-stock max weight, max concurrent positions, lot flooring,
// cost-inclusive affordability, and a minimum opening weight for new names.
func (s *Sizer) SizeBuy(code string, price float64, snap Snapshot) int64 {
	if price <= 0 {
		return 0
	}

	// New name while the book is full.
	if snap.Shares[code] == 0 && snap.Positions >= s.cfg.MaxPositions {
		return 0
	}

	target := snap.Equity * s.cfg.RotationFraction

	available := snap.Cash - snap.Equity*s.cfg.CashReserve
	if target > available {
		target = available
	}

	headroom := s.cfg.MaxWeight*snap.Equity - snap.Value[code]
	if target > headroom {
		target = headroom
	}

	if target <= 0 {
		return 0
	}

	lot := s.cfg.LotSize
	shares := int64(target/price) / lot * lot

	// Costs come on top of gross; shrink until the full outlay fits in
	// available cash without dipping into the reserve.
	for shares > 0 && s.costs.BuyOutlay(price, shares) > available {
		shares -= lot
	}

	// A new position too small to matter is not worth opening.
	if snap.Shares[code] == 0 && float64(shares)*price < s.cfg.MinWeight*snap.Equity {
		return 0
	}
	return shares
}

// SizeSell returns the share count to sell: a confidence-scaled fraction of
// the current holding, floored to lot size, never exceeding tradable shares.
// Confidence 3 (all confirming dimensions) sells the full configured
// fraction; confidence 2 sells half of it.
func (s *Sizer) SizeSell(code string, confidence int, snap Snapshot) int64 {
	held := snap.Shares[code]
	if held <= 0 {
		return 0
	}

	fraction := s.cfg.SellFraction
	if confidence < 3 {
		fraction /= 2
	}

	lot := s.cfg.LotSize
	shares := int64(float64(held)*fraction) / lot * lot
	if shares > held {
		shares = held
	}
	return shares
}
