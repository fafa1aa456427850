package contracts

import "time"

// Position is a single holding inside the portfolio. Shares is fractional
// only transiently, after a corporate action credits a non-lot remainder;
// ordinary trades always move it in lot multiples.
type Position struct {
	Code      string  `json:"code"`
	Shares    float64 `json:"shares"`
	AvgCost   float64 `json:"avg_cost"`   // per-share weighted average cost
	CostBasis float64 `json:"cost_basis"` // total cost including trade costs
}

// CostBreakdown itemizes the costs of one trade.
type CostBreakdown struct {
	Commission  float64 `json:"commission"`
	StampTax    float64 `json:"stamp_tax"`
	Slippage    float64 `json:"slippage"`
	TransferFee float64 `json:"transfer_fee"`
}

// Total returns the sum of all cost components.
func (c CostBreakdown) Total() float64 {
	return c.Commission + c.StampTax + c.Slippage + c.TransferFee
}

// Transaction is one append-only entry of the trade log. Never mutated after
// creation.
type Transaction struct {
	Seq       int           `json:"seq"`
	Date      time.Time     `json:"date"`
	Code      string        `json:"code"`
	Side      Side          `json:"side"`
	Shares    int64         `json:"shares"`
	Price     float64       `json:"price"`
	Gross     float64       `json:"gross"`
	Costs     CostBreakdown `json:"costs"`
	CashAfter float64       `json:"cash_after"`

	// RealizedPnL is set on sells: net proceeds minus the cost basis of the
	// shares sold.
	RealizedPnL float64 `json:"realized_pnl,omitempty"`
}

// CorporateActionType enumerates the supported corporate actions.
type CorporateActionType string

const (
	// ActionDividend pays CashPerShare into the cash balance.
	ActionDividend CorporateActionType = "dividend"
	// ActionBonus credits ShareRatio extra shares per held share for free.
	ActionBonus CorporateActionType = "bonus"
	// ActionRights credits ShareRatio shares per held share, paid at
	// RightsPrice per new share.
	ActionRights CorporateActionType = "rights"
)

// CorporateAction is a dividend, bonus-share, or rights event. It applies on
// the first trading bar dated at or after ExDate, before signals for that bar
// are computed.
type CorporateAction struct {
	Code         string              `json:"code"`
	ExDate       time.Time           `json:"ex_date"`
	Type         CorporateActionType `json:"type"`
	CashPerShare float64             `json:"cash_per_share,omitempty"`
	ShareRatio   float64             `json:"share_ratio,omitempty"`
	RightsPrice  float64             `json:"rights_price,omitempty"`
}
