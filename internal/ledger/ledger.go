// Package ledger owns the single mutable portfolio aggregate: cash, per-stock
// positions with weighted-average cost basis, and the append-only transaction
// log. All other components read portfolio state through its accessors.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/pkg/logger"
)

// cashEpsilon absorbs float rounding on the cash >= 0 check.
const cashEpsilon = 1e-6

// Ledger tracks portfolio state through a simulation run.
type Ledger struct {
	lot       int64
	cash      float64
	positions map[string]*contracts.Position
	log       []contracts.Transaction
	logger    *logger.Logger
}

// New creates a Ledger seeded with initial cash.
func New(initialCash float64, lotSize int64, log *logger.Logger) *Ledger {
	return &Ledger{
		lot:       lotSize,
		cash:      initialCash,
		positions: make(map[string]*contracts.Position),
		logger:    log,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Position returns a copy of the position for a code, if held.
func (l *Ledger) Position(code string) (contracts.Position, bool) {
	pos, ok := l.positions[code]
	if !ok {
		return contracts.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions, sorted by code.
func (l *Ledger) Positions() []contracts.Position {
	out := make([]contracts.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// HeldCount returns the number of open positions.
func (l *Ledger) HeldCount() int {
	return len(l.positions)
}

// TradableShares returns the lot-rounded share count for a code. Fractional
// remainders left by corporate actions are held but not tradable.
func (l *Ledger) TradableShares(code string) int64 {
	pos, ok := l.positions[code]
	if !ok {
		return 0
	}
	whole := int64(math.Floor(pos.Shares))
	return whole / l.lot * l.lot
}

// MarkToMarket values every position at the given prices and returns total
// equity (cash plus holdings). Stocks without a price keep their last known
// value out of the total only if never priced; callers supply a price for
// every held code.
func (l *Ledger) MarkToMarket(prices map[string]float64) float64 {
	// Summed in code order: float addition is not associative, so a map walk
	// would let the total drift between calls on identical state.
	total := l.cash
	for _, pos := range l.Positions() {
		total += pos.Shares * prices[pos.Code]
	}
	return total
}

// Transactions returns the append-only trade log.
func (l *Ledger) Transactions() []contracts.Transaction {
	return l.log
}

// ApplyTrade mutates cash and positions for an executed trade and appends a
// transaction record. The sizer clips trades before they reach here, so any
// constraint violation is a programming error and fatal for the run.
func (l *Ledger) ApplyTrade(
	date time.Time,
	code string,
	side contracts.Side,
	shares int64,
	price float64,
	costs contracts.CostBreakdown,
) (contracts.Transaction, error) {
	if shares <= 0 {
		return contracts.Transaction{}, &contracts.ConstraintViolationError{
			Code: code, Side: side, Message: fmt.Sprintf("non-positive share count %d", shares)}
	}
	if shares%l.lot != 0 {
		return contracts.Transaction{}, &contracts.ConstraintViolationError{
			Code: code, Side: side, Message: fmt.Sprintf("%d shares is not a lot multiple of %d", shares, l.lot)}
	}

	gross := price * float64(shares)
	realizedPnL := 0.0

	switch side {
	case contracts.SideBuy:
		outlay := gross + costs.Total()
		if outlay > l.cash+cashEpsilon {
			return contracts.Transaction{}, &contracts.ConstraintViolationError{
				Code: code, Side: side,
				Message: fmt.Sprintf("outlay %.2f exceeds cash %.2f", outlay, l.cash)}
		}
		l.cash -= outlay

		pos, ok := l.positions[code]
		if !ok {
			pos = &contracts.Position{Code: code}
			l.positions[code] = pos
		}
		pos.Shares += float64(shares)
		pos.CostBasis += outlay
		pos.AvgCost = pos.CostBasis / pos.Shares

	case contracts.SideSell:
		if shares > l.TradableShares(code) {
			return contracts.Transaction{}, &contracts.ConstraintViolationError{
				Code: code, Side: side,
				Message: fmt.Sprintf("sell of %d exceeds tradable %d", shares, l.TradableShares(code))}
		}
		pos := l.positions[code]

		proceeds := gross - costs.Total()
		removed := pos.CostBasis * float64(shares) / pos.Shares
		realizedPnL = proceeds - removed
		l.cash += proceeds
		pos.Shares -= float64(shares)
		pos.CostBasis -= removed
		if pos.Shares < 1e-9 {
			delete(l.positions, code)
		} else {
			pos.AvgCost = pos.CostBasis / pos.Shares
		}

	default:
		return contracts.Transaction{}, &contracts.ConstraintViolationError{
			Code: code, Side: side, Message: "unknown side"}
	}

	txn := contracts.Transaction{
		Seq:       len(l.log) + 1,
		Date:      date,
		Code:      code,
		Side:      side,
		Shares:    shares,
		Price:     price,
		Gross:     gross,
		Costs:     costs,
		CashAfter: l.cash,

		RealizedPnL: realizedPnL,
	}
	l.log = append(l.log, txn)
	return txn, nil
}
