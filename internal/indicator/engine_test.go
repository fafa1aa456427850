package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

func testIndicatorConfig() strategyconfig.Indicator {
	return strategyconfig.Indicator{
		EMAPeriod:          3,
		RSIPeriod:          3,
		MACDFast:           3,
		MACDSlow:           5,
		MACDSignal:         2,
		BollPeriod:         4,
		BollMult:           2.0,
		VolumeMAPeriod:     2,
		DivergenceLookback: 3,
	}
}

func makeBars(closes []float64, volumes []int64) []contracts.Bar {
	bars := make([]contracts.Bar, len(closes))
	date := time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		vol := int64(1000)
		if volumes != nil {
			vol = volumes[i]
		}
		bars[i] = contracts.Bar{
			Code:   "600036",
			Date:   date.AddDate(0, 0, 7*i),
			Open:   c,
			High:   c * 1.02,
			Low:    c * 0.98,
			Close:  c,
			Volume: vol,
		}
	}
	return bars
}

func TestEMA_SeededWithSMA(t *testing.T) {
	closes := []float64{10, 12, 14, 16, 18}
	ema := emaSeries(closes, 3)

	if !math.IsNaN(ema[0]) || !math.IsNaN(ema[1]) {
		t.Error("EMA should be NaN inside the seed window")
	}

	seed := (10.0 + 12.0 + 14.0) / 3.0
	if math.Abs(ema[2]-seed) > 1e-9 {
		t.Errorf("EMA seed = %v, want SMA %v", ema[2], seed)
	}

	alpha := 2.0 / 4.0
	want := 16*alpha + seed*(1-alpha)
	if math.Abs(ema[3]-want) > 1e-9 {
		t.Errorf("EMA[3] = %v, want %v", ema[3], want)
	}
}

func TestRSI_Bounds(t *testing.T) {
	closes := []float64{10, 11, 10.5, 12, 11.8, 13, 12.5, 14, 13.7, 15}
	rsi := rsiSeries(closes, 3)

	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %v out of [0, 100]", i, v)
		}
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15}
	rsi := rsiSeries(closes, 3)

	last := rsi[len(rsi)-1]
	if last != 100.0 {
		t.Errorf("RSI of monotone rally = %v, want 100", last)
	}
}

func TestRSI_FlatSeries(t *testing.T) {
	closes := []float64{10, 10, 10, 10, 10}
	rsi := rsiSeries(closes, 3)

	if rsi[3] != 50.0 {
		t.Errorf("RSI of flat series = %v, want 50", rsi[3])
	}
}

func TestBollinger_PopulationStdev(t *testing.T) {
	closes := []float64{10, 12, 14, 16}
	mid, upper, lower := bollingerSeries(closes, 4, 2.0)

	m := 13.0
	variance := ((10-m)*(10-m) + (12-m)*(12-m) + (14-m)*(14-m) + (16-m)*(16-m)) / 4.0
	sd := math.Sqrt(variance)

	if math.Abs(mid[3]-m) > 1e-9 {
		t.Errorf("mid = %v, want %v", mid[3], m)
	}
	if math.Abs(upper[3]-(m+2*sd)) > 1e-9 {
		t.Errorf("upper = %v, want %v", upper[3], m+2*sd)
	}
	if math.Abs(lower[3]-(m-2*sd)) > 1e-9 {
		t.Errorf("lower = %v, want %v", lower[3], m-2*sd)
	}
	if !(lower[3] < mid[3] && mid[3] < upper[3]) {
		t.Error("band ordering violated")
	}
}

func TestBollinger_ConstantPrice(t *testing.T) {
	closes := []float64{10, 10, 10, 10, 10}
	mid, upper, lower := bollingerSeries(closes, 4, 2.0)

	if upper[4] != 10 || mid[4] != 10 || lower[4] != 10 {
		t.Errorf("constant price bands = (%v, %v, %v), want all 10", upper[4], mid[4], lower[4])
	}
}

func TestCompute_TruncationDoesNotChangeHistory(t *testing.T) {
	engine := New(testIndicatorConfig())

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)) + float64(i)
	}
	bars := makeBars(closes, nil)

	full, err := engine.Compute(bars)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	prefix, err := engine.Compute(bars[:20])
	if err != nil {
		t.Fatalf("Compute on prefix failed: %v", err)
	}

	series := map[string][2][]float64{
		"ema":   {full.EMA, prefix.EMA},
		"rsi":   {full.RSI, prefix.RSI},
		"dif":   {full.DIF, prefix.DIF},
		"dea":   {full.DEA, prefix.DEA},
		"hist":  {full.Hist, prefix.Hist},
		"bbup":  {full.BBUp, prefix.BBUp},
		"bblow": {full.BBLow, prefix.BBLow},
		"volma": {full.VolMA, prefix.VolMA},
	}
	for name, pair := range series {
		for i := 0; i < 20; i++ {
			a, b := pair[0][i], pair[1][i]
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if math.Abs(a-b) > 1e-12 {
				t.Errorf("%s[%d] differs after truncation: %v vs %v", name, i, a, b)
			}
		}
	}
}

func TestSeries_At_Warmup(t *testing.T) {
	engine := New(testIndicatorConfig())
	bars := makeBars([]float64{10, 11, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15}, nil)

	s, err := engine.Compute(bars)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if _, err := s.At(1); !errors.Is(err, contracts.ErrInsufficientData) {
		t.Errorf("At(1) error = %v, want ErrInsufficientData", err)
	}

	snap, err := s.At(len(bars) - 1)
	if err != nil {
		t.Fatalf("At(last) error = %v", err)
	}
	if snap.Code != "600036" {
		t.Errorf("snapshot code = %s", snap.Code)
	}
	if math.IsNaN(snap.MACDHist) || math.IsNaN(snap.BBUpper) {
		t.Error("complete snapshot contains NaN")
	}
}

func TestCompute_RejectsBadSeries(t *testing.T) {
	engine := New(testIndicatorConfig())
	bars := makeBars([]float64{10, 11}, nil)
	bars[1].Date = bars[0].Date // duplicate date

	if _, err := engine.Compute(bars); err == nil {
		t.Error("Compute accepted a series with duplicate dates")
	}
}

func TestWarmupBars(t *testing.T) {
	engine := New(testIndicatorConfig())
	// MACD slow 5 + signal 2 + 1 dominates the small test periods.
	if got := engine.WarmupBars(); got != 8 {
		t.Errorf("WarmupBars() = %d, want 8", got)
	}
}
