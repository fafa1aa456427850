// Package indicator computes technical indicators over weekly bar series.
// Every value at index i is derived only from bars[0..i]; the recursions run
// strictly left to right, so truncating a series never changes earlier values.
package indicator

import (
	"math"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

// Engine computes indicator series for one configuration of periods.
type Engine struct {
	cfg strategyconfig.Indicator
}

// New creates an Engine from indicator configuration.
func New(cfg strategyconfig.Indicator) *Engine {
	return &Engine{cfg: cfg}
}

// WarmupBars returns the minimum number of bars before a complete snapshot
// exists. The MACD signal line is the slowest component.
func (e *Engine) WarmupBars() int {
	warmup := e.cfg.MACDSlow + e.cfg.MACDSignal + 1
	if e.cfg.BollPeriod > warmup {
		warmup = e.cfg.BollPeriod
	}
	if e.cfg.RSIPeriod+2 > warmup {
		warmup = e.cfg.RSIPeriod + 2
	}
	if e.cfg.VolumeMAPeriod > warmup {
		warmup = e.cfg.VolumeMAPeriod
	}
	return warmup
}

// Series holds per-bar indicator values for one stock. Values are NaN inside
// each indicator's warm-up window.
type Series struct {
	cfg  strategyconfig.Indicator
	Bars []contracts.Bar

	EMA   []float64
	RSI   []float64
	DIF   []float64
	DEA   []float64
	Hist  []float64
	BBUp  []float64
	BBMid []float64
	BBLow []float64
	VolMA []float64
}

// Compute builds the full indicator series for an ordered bar series. The
// result is causal: Series values at index i never depend on bars after i.
func (e *Engine) Compute(bars []contracts.Bar) (*Series, error) {
	if err := contracts.ValidateSeries(bars); err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	s := &Series{
		cfg:  e.cfg,
		Bars: bars,
		EMA:  emaSeries(closes, e.cfg.EMAPeriod),
		RSI:  rsiSeries(closes, e.cfg.RSIPeriod),
	}

	emaFast := emaSeries(closes, e.cfg.MACDFast)
	emaSlow := emaSeries(closes, e.cfg.MACDSlow)
	s.DIF = subtract(emaFast, emaSlow)
	s.DEA = emaSeries(s.DIF, e.cfg.MACDSignal)
	s.Hist = make([]float64, len(bars))
	for i := range s.Hist {
		s.Hist[i] = 2 * (s.DIF[i] - s.DEA[i])
	}

	s.BBMid, s.BBUp, s.BBLow = bollingerSeries(closes, e.cfg.BollPeriod, e.cfg.BollMult)

	volumes := make([]float64, len(bars))
	for i := range bars {
		volumes[i] = float64(bars[i].Volume)
	}
	s.VolMA = smaSeries(volumes, e.cfg.VolumeMAPeriod)

	return s, nil
}

// At returns the snapshot for index i, or ErrInsufficientData while any
// component is still warming up.
func (s *Series) At(i int) (contracts.IndicatorSnapshot, error) {
	snap := contracts.IndicatorSnapshot{
		Code:      s.Bars[i].Code,
		Date:      s.Bars[i].Date,
		EMA20:     s.EMA[i],
		RSI14:     s.RSI[i],
		MACDDif:   s.DIF[i],
		MACDDea:   s.DEA[i],
		MACDHist:  s.Hist[i],
		BBUpper:   s.BBUp[i],
		BBMid:     s.BBMid[i],
		BBLower:   s.BBLow[i],
		VolumeMA4: s.VolMA[i],
	}
	if math.IsNaN(snap.EMA20) || math.IsNaN(snap.RSI14) || math.IsNaN(snap.MACDDea) ||
		math.IsNaN(snap.BBMid) || math.IsNaN(snap.VolumeMA4) {
		return snap, contracts.ErrInsufficientData
	}
	return snap, nil
}

// emaSeries computes an exponential moving average seeded with the simple
// average of the first n valid values. NaN inputs (e.g. a DIF still warming
// up) delay the seed window.
func emaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	sum, count, start := 0.0, 0, -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if start < 0 {
			start = i
		}
		sum += v
		count++
		if count == period {
			out[i] = sum / float64(period)
			alpha := 2.0 / (float64(period) + 1.0)
			for j := i + 1; j < len(values); j++ {
				out[j] = values[j]*alpha + out[j-1]*(1-alpha)
			}
			break
		}
	}
	return out
}

// rsiSeries computes Wilder-smoothed RSI. The first value appears after the
// warm-up window of `period` changes; earlier entries are NaN.
func rsiSeries(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// bollingerSeries computes middle/upper/lower bands using the population
// standard deviation over the trailing window.
func bollingerSeries(closes []float64, period int, mult float64) (mid, upper, lower []float64) {
	n := len(closes)
	mid, upper, lower = nanSlice(n), nanSlice(n), nanSlice(n)
	if period <= 1 {
		return mid, upper, lower
	}

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		m := mean(window)
		variance := 0.0
		for _, v := range window {
			d := v - m
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		mid[i] = m
		upper[i] = m + mult*sd
		lower[i] = m - mult*sd
	}
	return mid, upper, lower
}

// smaSeries computes a simple moving average over the trailing window.
func smaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = mean(values[i-period+1 : i+1])
	}
	return out
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
