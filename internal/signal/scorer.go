// Package signal evaluates the four-dimension rotation rule per stock per
// date. The valuation ratio is a hard gate; a buy or sell needs the gate plus
// at least two of the three confirming dimensions (RSI, MACD momentum,
// extreme price+volume).
package signal

import (
	"fmt"
	"math"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/indicator"
	"github.com/junzhu/rotor/internal/strategyconfig"
	"github.com/junzhu/rotor/internal/valuation"
	"github.com/junzhu/rotor/pkg/logger"
)

// Scorer turns indicator and valuation readings into buy/sell/hold decisions.
type Scorer struct {
	cfg     *strategyconfig.Config
	tracker *valuation.Tracker
	logger  *logger.Logger
}

// NewScorer creates a Scorer.
func NewScorer(cfg *strategyconfig.Config, tracker *valuation.Tracker, log *logger.Logger) *Scorer {
	return &Scorer{cfg: cfg, tracker: tracker, logger: log}
}

// Score evaluates one stock at bar index i of its indicator series. held
// reports whether the portfolio currently holds shares of the stock, which
// decides precedence if both gates pass under a misconfigured overlap.
//
// Returns ErrInsufficientData while the indicator warm-up is incomplete: no
// decision exists for that date, not even a hold.
func (s *Scorer) Score(series *indicator.Series, i int, held bool) (contracts.SignalDecision, error) {
	snap, err := series.At(i)
	if err != nil {
		return contracts.SignalDecision{}, err
	}

	bar := series.Bars[i]
	decision := contracts.SignalDecision{
		Code:   bar.Code,
		Date:   bar.Date,
		Action: contracts.ActionHold,
	}

	vs, err := s.tracker.Snapshot(bar.Code, bar.Date, bar.Close)
	if err != nil {
		// No intrinsic value: the stock can never pass the gate, so it
		// emits holds until one is configured.
		decision.Reason = "no intrinsic value configured"
		return decision, nil
	}
	decision.Ratio = vs.Ratio

	buyGate := vs.Ratio < s.tracker.BuyThreshold()
	sellGate := vs.Ratio > s.tracker.SellThreshold()

	switch {
	case buyGate && sellGate:
		// Thresholds overlap only under misconfiguration. Sell wins when the
		// stock is held; otherwise no decision is emitted.
		s.logger.WithFields(map[string]interface{}{
			"code":           bar.Code,
			"ratio":          vs.Ratio,
			"buy_threshold":  s.tracker.BuyThreshold(),
			"sell_threshold": s.tracker.SellThreshold(),
		}).Warn("Valuation gates overlap; check threshold configuration")
		if !held {
			decision.Reason = "gate overlap, stock not held"
			return decision, nil
		}
		return s.scoreSide(decision, contracts.ActionSell, snap, series, i, vs), nil
	case sellGate:
		return s.scoreSide(decision, contracts.ActionSell, snap, series, i, vs), nil
	case buyGate:
		return s.scoreSide(decision, contracts.ActionBuy, snap, series, i, vs), nil
	default:
		decision.Reason = fmt.Sprintf("ratio %.3f inside [%.2f, %.2f]", vs.Ratio,
			s.tracker.BuyThreshold(), s.tracker.SellThreshold())
		return decision, nil
	}
}

// scoreSide evaluates the three confirming dimensions for one side.
func (s *Scorer) scoreSide(
	decision contracts.SignalDecision,
	side contracts.Action,
	snap contracts.IndicatorSnapshot,
	series *indicator.Series,
	i int,
	vs contracts.ValuationSnapshot,
) contracts.SignalDecision {
	decision.GatePassed = true
	decision.Dimensions.Valuation = true
	if side == contracts.ActionSell {
		decision.GateMargin = vs.Ratio - s.tracker.SellThreshold()
	} else {
		decision.GateMargin = s.tracker.BuyThreshold() - vs.Ratio
	}

	th := s.tracker.Threshold(snap.Code)
	lookback := s.cfg.Indicator.DivergenceLookback

	if side == contracts.ActionSell {
		decision.Dimensions.MomentumRSI = snap.RSI14 >= th.ExtremeOverbought ||
			(snap.RSI14 >= th.Overbought && series.TopDivergence(i, lookback))
		decision.Dimensions.MomentumMACD = s.macdSell(series, i)
		decision.Dimensions.ExtremePriceVolume = series.Bars[i].Close >= snap.BBUpper &&
			float64(series.Bars[i].Volume) >= snap.VolumeMA4*s.cfg.Signal.VolumeSurgeSell
	} else {
		decision.Dimensions.MomentumRSI = snap.RSI14 <= th.ExtremeOversold ||
			(snap.RSI14 <= th.Oversold && series.BottomDivergence(i, lookback))
		decision.Dimensions.MomentumMACD = s.macdBuy(series, i)
		decision.Dimensions.ExtremePriceVolume = series.Bars[i].Close <= snap.BBLower &&
			float64(series.Bars[i].Volume) >= snap.VolumeMA4*s.cfg.Signal.VolumeFloorBuy
	}

	confirming := decision.Dimensions.Confirming()
	if confirming >= 2 {
		decision.Action = side
		decision.Reason = fmt.Sprintf("%s gate ratio=%.3f, %d/3 dimensions", side, vs.Ratio, confirming)
	} else {
		decision.Action = contracts.ActionHold
		decision.Reason = fmt.Sprintf("%s gate ratio=%.3f but only %d/3 dimensions", side, vs.Ratio, confirming)
	}
	return decision
}

// macdSell is true when downside momentum is confirmed: the histogram is
// negative and shrank in magnitude versus one or two bars prior, or DIF
// crossed below DEA on this bar.
func (s *Scorer) macdSell(series *indicator.Series, i int) bool {
	if histFading(series.Hist, i, func(h float64) bool { return h < 0 }) {
		return true
	}
	return crossed(series.DIF, series.DEA, i, func(a, b float64) bool { return a < b })
}

// macdBuy mirrors macdSell: positive fading histogram or a golden cross.
func (s *Scorer) macdBuy(series *indicator.Series, i int) bool {
	if histFading(series.Hist, i, func(h float64) bool { return h > 0 }) {
		return true
	}
	return crossed(series.DIF, series.DEA, i, func(a, b float64) bool { return a > b })
}

// histFading reports whether the histogram has the given sign and its
// magnitude shrank versus one or two bars prior.
func histFading(hist []float64, i int, sign func(float64) bool) bool {
	if i < 1 || math.IsNaN(hist[i]) || math.IsNaN(hist[i-1]) {
		return false
	}
	if !sign(hist[i]) {
		return false
	}
	cur := math.Abs(hist[i])
	if cur < math.Abs(hist[i-1]) {
		return true
	}
	return i >= 2 && !math.IsNaN(hist[i-2]) && cur < math.Abs(hist[i-2])
}

// crossed reports whether DIF moved to the cmp side of DEA on bar i, having
// been on the other side (or equal) the bar before.
func crossed(dif, dea []float64, i int, cmp func(a, b float64) bool) bool {
	if i < 1 || math.IsNaN(dif[i]) || math.IsNaN(dea[i]) || math.IsNaN(dif[i-1]) || math.IsNaN(dea[i-1]) {
		return false
	}
	return cmp(dif[i], dea[i]) && !cmp(dif[i-1], dea[i-1])
}
