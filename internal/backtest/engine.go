// Package backtest runs the event-driven simulation loop: it walks trading
// dates in order, scores every stock from data up to that date only, and
// executes qualifying trades against the shared-cash ledger.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/cost"
	"github.com/junzhu/rotor/internal/indicator"
	"github.com/junzhu/rotor/internal/ledger"
	"github.com/junzhu/rotor/internal/report"
	"github.com/junzhu/rotor/internal/signal"
	"github.com/junzhu/rotor/internal/sizing"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/internal/strategyconfig"
	"github.com/junzhu/rotor/internal/valuation"
	"github.com/junzhu/rotor/pkg/logger"
)

// Options selects the simulated date range and audit behavior.
type Options struct {
	StartDate time.Time
	EndDate   time.Time

	// RetainDecisions keeps every per-date decision (including holds) on the
	// result for inspection.
	RetainDecisions bool
}

// Result is the outcome of one run. On a per-stock failure the run continues;
// Skipped lists what was excluded and why.
type Result struct {
	StartDate time.Time
	EndDate   time.Time
	Duration  time.Duration

	Transactions []contracts.Transaction
	Positions    []contracts.Position
	FinalCash    float64
	FinalEquity  float64

	EquityCurve []report.EquityPoint
	Summary     report.Summary
	Decisions   []contracts.SignalDecision

	Skipped map[string]string // code -> reason
}

// Engine wires the scoring and execution components around a bar source.
type Engine struct {
	cfg        *strategyconfig.Config
	source     store.BarSource
	indicators *indicator.Engine
	scorer     *signal.Scorer
	sizer      *sizing.Sizer
	costs      *cost.Model
	logger     *logger.Logger
}

// NewEngine creates a backtest Engine from validated strategy configuration.
func NewEngine(cfg *strategyconfig.Config, source store.BarSource, log *logger.Logger) *Engine {
	costs := cost.NewModel(cfg.Costs)
	tracker := valuation.NewTracker(cfg)
	return &Engine{
		cfg:        cfg,
		source:     source,
		indicators: indicator.New(cfg.Indicator),
		scorer:     signal.NewScorer(cfg, tracker, log),
		sizer:      sizing.NewSizer(cfg.Portfolio, costs),
		costs:      costs,
		logger:     log,
	}
}

// stockState is the per-stock simulation cursor.
type stockState struct {
	code    string
	bars    []contracts.Bar
	series  *indicator.Series
	actions []contracts.CorporateAction

	barIdx    int // next bar to consume
	actionIdx int // next corporate action to consume
}

// Run executes the simulation over [StartDate, EndDate]. The loop is
// single-threaded in time: only the per-stock scoring inside one date fans
// out, because those computations share no mutable state.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	if !opts.StartDate.Before(opts.EndDate) {
		return nil, &contracts.ConfigurationError{Field: "dates", Message: "start must be before end"}
	}

	e.logger.WithFields(map[string]interface{}{
		"strategy": e.cfg.Meta.StrategyID,
		"from":     opts.StartDate.Format("2006-01-02"),
		"to":       opts.EndDate.Format("2006-01-02"),
		"stocks":   len(e.cfg.Universe.Codes),
	}).Info("Starting backtest")

	startTime := time.Now()
	result := &Result{
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
		Skipped:   make(map[string]string),
	}

	stocks, err := e.loadStocks(ctx, result)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no usable bar series in universe")
	}

	dates := tradingDates(stocks, opts.StartDate, opts.EndDate)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no trading dates in range")
	}

	book := ledger.New(e.cfg.Portfolio.InitialCapital, e.cfg.Portfolio.LotSize, e.logger)

	for di, date := range dates {
		// 1. Mark holdings to the latest close at or before this date.
		prices := e.advanceAndPrice(stocks, date)

		// 2. Corporate actions dated at or before this bar.
		e.applyActions(book, stocks, date, result)

		// Initial weights establish the book on the first trading date.
		if di == 0 {
			e.seedInitialPositions(book, date, prices)
		}

		// 3. Score every stock that has a bar on this date, in parallel.
		decisions := e.scoreDate(ctx, stocks, date, book)
		if opts.RetainDecisions {
			result.Decisions = append(result.Decisions, decisions...)
		}

		// 4+5. Execute qualifying trades sequentially under shared cash.
		e.execute(book, decisions, date, prices)

		equity := book.MarkToMarket(prices)
		result.EquityCurve = append(result.EquityCurve, report.EquityPoint{
			Date:   date,
			Equity: equity,
			Return: equity/e.cfg.Portfolio.InitialCapital - 1,
		})
	}

	result.Duration = time.Since(startTime)
	result.Transactions = book.Transactions()
	result.Positions = book.Positions()
	result.FinalCash = book.Cash()
	result.FinalEquity = result.EquityCurve[len(result.EquityCurve)-1].Equity

	benchmark := e.loadBenchmark(ctx, opts)
	result.Summary = report.Summarize(result.EquityCurve, result.Transactions, benchmark)

	e.logger.WithFields(map[string]interface{}{
		"duration":     result.Duration.Seconds(),
		"weeks":        len(result.EquityCurve),
		"trades":       len(result.Transactions),
		"final_equity": fmt.Sprintf("%.2f", result.FinalEquity),
		"total_return": fmt.Sprintf("%.2f%%", result.Summary.TotalReturn*100),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.Summary.MaxDrawdown*100),
	}).Info("Backtest completed")

	return result, nil
}

// loadStocks fetches bars, actions, and indicator series for the universe.
// A stock whose data cannot be loaded is skipped, not fatal.
func (e *Engine) loadStocks(ctx context.Context, result *Result) ([]*stockState, error) {
	codes := append([]string(nil), e.cfg.Universe.Codes...)
	sort.Strings(codes)

	stocks := make([]*stockState, 0, len(codes))
	for _, code := range codes {
		bars, err := e.source.Bars(ctx, code)
		if err != nil {
			e.logger.WithError(err).WithField("code", code).Warn("Skipping stock: bar load failed")
			result.Skipped[code] = err.Error()
			continue
		}
		if len(bars) == 0 {
			result.Skipped[code] = "no bars"
			continue
		}

		series, err := e.indicators.Compute(bars)
		if err != nil {
			e.logger.WithError(err).WithField("code", code).Warn("Skipping stock: indicator computation failed")
			result.Skipped[code] = err.Error()
			continue
		}

		actions, err := e.source.Actions(ctx, code)
		if err != nil {
			e.logger.WithError(err).WithField("code", code).Warn("Corporate actions unavailable; continuing without")
			actions = nil
		}

		stocks = append(stocks, &stockState{
			code:    code,
			bars:    bars,
			series:  series,
			actions: actions,
		})
	}
	return stocks, nil
}

// tradingDates returns the sorted union of bar dates inside the range.
func tradingDates(stocks []*stockState, start, end time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	for _, st := range stocks {
		for _, bar := range st.bars {
			if bar.Date.Before(start) || bar.Date.After(end) {
				continue
			}
			seen[bar.Date] = true
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// advanceAndPrice moves each stock's bar cursor to the last bar at or before
// date and returns the mark prices.
func (e *Engine) advanceAndPrice(stocks []*stockState, date time.Time) map[string]float64 {
	prices := make(map[string]float64, len(stocks))
	for _, st := range stocks {
		for st.barIdx < len(st.bars) && !st.bars[st.barIdx].Date.After(date) {
			st.barIdx++
		}
		if st.barIdx > 0 {
			prices[st.code] = st.bars[st.barIdx-1].Close
		}
	}
	return prices
}

// currentIdx returns the index of the bar dated exactly at date, or -1.
func (st *stockState) currentIdx(date time.Time) int {
	i := st.barIdx - 1
	if i >= 0 && st.bars[i].Date.Equal(date) {
		return i
	}
	return -1
}

// applyActions consumes corporate actions with ex-date at or before this bar.
// A Ledger invariant failure here is a data problem worth surfacing, but it
// only disables that stock's remaining events.
func (e *Engine) applyActions(book *ledger.Ledger, stocks []*stockState, date time.Time, result *Result) {
	for _, st := range stocks {
		for st.actionIdx < len(st.actions) && !st.actions[st.actionIdx].ExDate.After(date) {
			ev := st.actions[st.actionIdx]
			st.actionIdx++
			if err := book.ApplyCorporateAction(ev); err != nil {
				e.logger.WithError(err).WithField("code", st.code).Error("Corporate action rejected")
				result.Skipped[st.code] = "corporate action rejected: " + err.Error()
				st.actionIdx = len(st.actions)
			}
		}
	}
}

// seedInitialPositions buys the configured initial weights at the first
// date's closes, paying normal transaction costs.
func (e *Engine) seedInitialPositions(book *ledger.Ledger, date time.Time, prices map[string]float64) {
	weights := e.cfg.Portfolio.InitialWeights
	if len(weights) == 0 {
		return
	}

	codes := make([]string, 0, len(weights))
	for code := range weights {
		if code != "cash" && weights[code] > 0 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	capital := e.cfg.Portfolio.InitialCapital
	lot := e.sizer.LotSize()
	for _, code := range codes {
		price, ok := prices[code]
		if !ok || price <= 0 {
			continue
		}
		shares := int64(capital*weights[code]/price) / lot * lot
		for shares > 0 && e.costs.BuyOutlay(price, shares) > book.Cash() {
			shares -= lot
		}
		if shares == 0 {
			continue
		}
		quote := e.costs.Quote(contracts.SideBuy, price, shares)
		if _, err := book.ApplyTrade(date, code, contracts.SideBuy, shares, price, quote); err != nil {
			e.logger.WithError(err).WithField("code", code).Error("Initial position seed failed")
		}
	}
}

// scoreDate evaluates every stock with a bar on this date. Scoring is pure
// per stock, so the fan-out needs no locking; results land in a slice indexed
// by stock order to keep the output deterministic.
func (e *Engine) scoreDate(
	ctx context.Context,
	stocks []*stockState,
	date time.Time,
	book *ledger.Ledger,
) []contracts.SignalDecision {
	type slot struct {
		decision contracts.SignalDecision
		ok       bool
	}
	slots := make([]slot, len(stocks))

	g, _ := errgroup.WithContext(ctx)
	for i, st := range stocks {
		idx := st.currentIdx(date)
		if idx < 0 {
			continue
		}
		i, st := i, st
		held := book.TradableShares(st.code) > 0
		g.Go(func() error {
			decision, err := e.scorer.Score(st.series, idx, held)
			if err != nil {
				// Insufficient history is the normal early-window case;
				// anything else is a per-stock fault that must not stop the
				// scan of other stocks.
				if !errors.Is(err, contracts.ErrInsufficientData) {
					e.logger.WithError(err).WithFields(map[string]interface{}{
						"code": st.code,
						"date": date.Format("2006-01-02"),
					}).Warn("Scoring failed; stock skipped for this date")
				}
				return nil
			}
			slots[i] = slot{decision: decision, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	decisions := make([]contracts.SignalDecision, 0, len(stocks))
	for _, s := range slots {
		if s.ok {
			decisions = append(decisions, s.decision)
		}
	}
	return decisions
}

// execute applies the date's decisions to the ledger: sells first to release
// cash, then buys greedily ordered by confidence, gate margin, and code.
func (e *Engine) execute(
	book *ledger.Ledger,
	decisions []contracts.SignalDecision,
	date time.Time,
	prices map[string]float64,
) {
	var sells, buys []contracts.SignalDecision
	for _, d := range decisions {
		switch d.Action {
		case contracts.ActionSell:
			sells = append(sells, d)
		case contracts.ActionBuy:
			buys = append(buys, d)
		}
	}

	sort.Slice(sells, func(i, j int) bool { return sells[i].Code < sells[j].Code })
	for _, d := range sells {
		snap := e.snapshot(book, prices)
		shares := e.sizer.SizeSell(d.Code, d.Confidence(), snap)
		if shares == 0 {
			continue
		}
		price := prices[d.Code]
		quote := e.costs.Quote(contracts.SideSell, price, shares)
		if _, err := book.ApplyTrade(date, d.Code, contracts.SideSell, shares, price, quote); err != nil {
			e.logger.WithError(err).WithField("code", d.Code).Error("Sell rejected by ledger")
		}
	}

	// Buys compete for the cash the sells just released.
	sort.Slice(buys, func(i, j int) bool {
		if buys[i].Confidence() != buys[j].Confidence() {
			return buys[i].Confidence() > buys[j].Confidence()
		}
		if buys[i].GateMargin != buys[j].GateMargin {
			return buys[i].GateMargin > buys[j].GateMargin
		}
		return buys[i].Code < buys[j].Code
	})
	for _, d := range buys {
		snap := e.snapshot(book, prices)
		shares := e.sizer.SizeBuy(d.Code, prices[d.Code], snap)
		if shares == 0 {
			continue
		}
		price := prices[d.Code]
		quote := e.costs.Quote(contracts.SideBuy, price, shares)
		if _, err := book.ApplyTrade(date, d.Code, contracts.SideBuy, shares, price, quote); err != nil {
			e.logger.WithError(err).WithField("code", d.Code).Error("Buy rejected by ledger")
		}
	}
}

// snapshot captures the sizing view of the current book.
func (e *Engine) snapshot(book *ledger.Ledger, prices map[string]float64) sizing.Snapshot {
	snap := sizing.Snapshot{
		Cash:      book.Cash(),
		Equity:    book.MarkToMarket(prices),
		Positions: book.HeldCount(),
		Shares:    make(map[string]int64),
		Value:     make(map[string]float64),
	}
	for _, pos := range book.Positions() {
		snap.Shares[pos.Code] = book.TradableShares(pos.Code)
		snap.Value[pos.Code] = pos.Shares * prices[pos.Code]
	}
	return snap
}

// loadBenchmark fetches the benchmark series clipped to the run window.
func (e *Engine) loadBenchmark(ctx context.Context, opts Options) []contracts.Bar {
	code := e.cfg.Universe.Benchmark
	if code == "" {
		return nil
	}
	bars, err := e.source.Bars(ctx, code)
	if err != nil {
		e.logger.WithError(err).WithField("code", code).Warn("Benchmark unavailable")
		return nil
	}
	var clipped []contracts.Bar
	for _, b := range bars {
		if b.Date.Before(opts.StartDate) || b.Date.After(opts.EndDate) {
			continue
		}
		clipped = append(clipped, b)
	}
	return clipped
}
