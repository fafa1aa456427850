// Package report computes performance statistics from a finished run: the
// equity curve, the transaction log, and an optional benchmark series.
package report

import (
	"math"
	"time"

	"github.com/junzhu/rotor/internal/contracts"
)

// periodsPerYear annualizes weekly bars.
const periodsPerYear = 52.0

// EquityPoint is one point of the equity curve.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
	Return float64   `json:"return"` // cumulative vs initial capital
}

// Summary holds the performance statistics of one run.
type Summary struct {
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	TradingWeeks int       `json:"trading_weeks"`

	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`

	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	CAGR             float64 `json:"cagr"`
	Volatility       float64 `json:"volatility"`
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WeeklyVaR95      float64 `json:"weekly_var_95"`
	WeeklyCVaR95     float64 `json:"weekly_cvar_95"`

	TotalTrades int     `json:"total_trades"`
	BuyTrades   int     `json:"buy_trades"`
	SellTrades  int     `json:"sell_trades"`
	WinRate     float64 `json:"win_rate"` // profitable sells / sells
	TotalCosts  float64 `json:"total_costs"`
	Turnover    float64 `json:"turnover"` // traded gross / average equity

	BenchmarkReturn float64 `json:"benchmark_return,omitempty"`
	ExcessReturn    float64 `json:"excess_return,omitempty"`
}

// Summarize computes the summary. benchmark may be nil.
func Summarize(curve []EquityPoint, txns []contracts.Transaction, benchmark []contracts.Bar) Summary {
	s := Summary{TotalTrades: len(txns)}
	if len(curve) == 0 {
		return s
	}

	s.StartDate = curve[0].Date
	s.EndDate = curve[len(curve)-1].Date
	s.TradingWeeks = len(curve)
	s.InitialCapital = curve[0].Equity / (1 + curve[0].Return)
	s.FinalEquity = curve[len(curve)-1].Equity
	s.TotalReturn = (s.FinalEquity - s.InitialCapital) / s.InitialCapital

	years := float64(len(curve)) / periodsPerYear
	if years > 0 {
		s.AnnualizedReturn = s.TotalReturn / years
		if s.FinalEquity > 0 && s.InitialCapital > 0 {
			s.CAGR = math.Pow(s.FinalEquity/s.InitialCapital, 1.0/years) - 1.0
		}
	}

	weekly := weeklyReturns(curve)
	s.Volatility = stddev(weekly) * math.Sqrt(periodsPerYear)
	if s.Volatility > 0 {
		s.Sharpe = s.AnnualizedReturn / s.Volatility
	}

	var downside []float64
	for _, r := range weekly {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideDev := stddev(downside) * math.Sqrt(periodsPerYear)
	if downsideDev > 0 {
		s.Sortino = s.AnnualizedReturn / downsideDev
	}

	s.MaxDrawdown = maxDrawdown(curve)
	s.WeeklyVaR95, s.WeeklyCVaR95 = HistoricalVaR(weekly, 0.95)

	s.tradeStats(txns)

	if len(benchmark) >= 2 && benchmark[0].Close > 0 {
		s.BenchmarkReturn = (benchmark[len(benchmark)-1].Close - benchmark[0].Close) / benchmark[0].Close
		s.ExcessReturn = s.TotalReturn - s.BenchmarkReturn
	}

	return s
}

func (s *Summary) tradeStats(txns []contracts.Transaction) {
	grossTraded := 0.0
	winners, sells := 0, 0
	for _, t := range txns {
		grossTraded += t.Gross
		s.TotalCosts += t.Costs.Total()
		switch t.Side {
		case contracts.SideBuy:
			s.BuyTrades++
		case contracts.SideSell:
			s.SellTrades++
			sells++
			if t.RealizedPnL > 0 {
				winners++
			}
		}
	}
	if sells > 0 {
		s.WinRate = float64(winners) / float64(sells)
	}

	avgEquity := (s.InitialCapital + s.FinalEquity) / 2
	if avgEquity > 0 {
		s.Turnover = grossTraded / avgEquity
	}
}

func weeklyReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i].Equity-prev)/prev)
	}
	return out
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range values {
		m += v
	}
	m /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func maxDrawdown(curve []EquityPoint) float64 {
	maxDD := 0.0
	peak := curve[0].Equity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
