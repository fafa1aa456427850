package ledger

import (
	"fmt"

	"github.com/junzhu/rotor/internal/contracts"
)

// ApplyCorporateAction adjusts shares, cash, and cost basis for a dividend,
// bonus-share, or rights event. Events for codes not currently held are
// no-ops. Bonus and rights ratios may leave fractional-lot share remainders;
// those stay in the position but are excluded from TradableShares.
func (l *Ledger) ApplyCorporateAction(ev contracts.CorporateAction) error {
	pos, ok := l.positions[ev.Code]
	if !ok {
		return nil
	}

	switch ev.Type {
	case contracts.ActionDividend:
		if ev.CashPerShare < 0 {
			return fmt.Errorf("dividend for %s: negative cash per share", ev.Code)
		}
		l.cash += ev.CashPerShare * pos.Shares

	case contracts.ActionBonus:
		if ev.ShareRatio <= 0 {
			return fmt.Errorf("bonus for %s: ratio must be > 0", ev.Code)
		}
		// Free shares: cost basis is unchanged, per-share cost drops.
		pos.Shares *= 1 + ev.ShareRatio
		pos.AvgCost = pos.CostBasis / pos.Shares

	case contracts.ActionRights:
		if ev.ShareRatio <= 0 || ev.RightsPrice < 0 {
			return fmt.Errorf("rights for %s: invalid ratio or price", ev.Code)
		}
		newShares := pos.Shares * ev.ShareRatio
		outlay := newShares * ev.RightsPrice
		if outlay > l.cash+cashEpsilon {
			// Cannot fund the subscription; forfeit the rights.
			l.logger.WithFields(map[string]interface{}{
				"code":   ev.Code,
				"outlay": outlay,
				"cash":   l.cash,
			}).Warn("Rights issue skipped: insufficient cash")
			return nil
		}
		l.cash -= outlay
		pos.Shares += newShares
		pos.CostBasis += outlay
		pos.AvgCost = pos.CostBasis / pos.Shares

	default:
		return fmt.Errorf("unknown corporate action type %q for %s", ev.Type, ev.Code)
	}

	l.logger.WithFields(map[string]interface{}{
		"code":   ev.Code,
		"type":   ev.Type,
		"shares": pos.Shares,
		"cash":   l.cash,
	}).Debug("Corporate action applied")
	return nil
}
