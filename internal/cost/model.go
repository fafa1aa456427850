// Package cost computes per-trade transaction costs: commission with a
// minimum, sell-side stamp tax, slippage, and transfer fee.
package cost

import (
	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

// Model prices the cost of a prospective trade from configured rates.
type Model struct {
	cfg strategyconfig.Costs
}

// NewModel creates a cost Model.
func NewModel(cfg strategyconfig.Costs) *Model {
	return &Model{cfg: cfg}
}

// Quote returns the itemized costs for a trade of the given side, price, and
// share count. Stamp tax applies to sells only.
func (m *Model) Quote(side contracts.Side, price float64, shares int64) contracts.CostBreakdown {
	gross := price * float64(shares)

	commission := gross * m.cfg.CommissionRate
	if commission < m.cfg.MinCommission {
		commission = m.cfg.MinCommission
	}

	breakdown := contracts.CostBreakdown{
		Commission:  commission,
		Slippage:    gross * m.cfg.SlippageRate,
		TransferFee: gross * m.cfg.TransferFeeRate,
	}
	if side == contracts.SideSell {
		breakdown.StampTax = gross * m.cfg.StampTaxRate
	}
	return breakdown
}

// BuyOutlay returns the total cash required to buy: gross plus all costs.
func (m *Model) BuyOutlay(price float64, shares int64) float64 {
	gross := price * float64(shares)
	return gross + m.Quote(contracts.SideBuy, price, shares).Total()
}
