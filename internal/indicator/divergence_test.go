package indicator

import (
	"math"
	"testing"
)

// divergenceSeries builds a Series with just the fields divergence checks
// use: closes and RSI.
func divergenceSeries(closes, rsi []float64) *Series {
	return &Series{Bars: makeBars(closes, nil), RSI: rsi}
}

func TestBottomDivergence(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		rsi    []float64
		want   bool
	}{
		{
			// New price low while RSI holds above its earlier low.
			name:   "price low without RSI low",
			closes: []float64{10, 9, 8.5, 8},
			rsi:    []float64{40, 30, 25, 28},
			want:   true,
		},
		{
			// RSI confirms the new low: no divergence.
			name:   "RSI makes new low too",
			closes: []float64{10, 9, 8.5, 8},
			rsi:    []float64{40, 30, 25, 22},
			want:   false,
		},
		{
			// Latest close is not the window low.
			name:   "no new price low",
			closes: []float64{10, 8, 8.5, 9},
			rsi:    []float64{40, 25, 28, 30},
			want:   false,
		},
		{
			name:   "NaN RSI in window",
			closes: []float64{10, 9, 8.5, 8},
			rsi:    []float64{math.NaN(), 30, 25, 28},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := divergenceSeries(tt.closes, tt.rsi)
			if got := s.BottomDivergence(len(tt.closes)-1, len(tt.closes)); got != tt.want {
				t.Errorf("BottomDivergence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopDivergence(t *testing.T) {
	s := divergenceSeries(
		[]float64{10, 11, 11.5, 12},
		[]float64{60, 75, 72, 70},
	)
	if !s.TopDivergence(3, 4) {
		t.Error("expected top divergence: new price high without new RSI high")
	}

	confirmed := divergenceSeries(
		[]float64{10, 11, 11.5, 12},
		[]float64{60, 70, 72, 78},
	)
	if confirmed.TopDivergence(3, 4) {
		t.Error("RSI made a new high; no divergence expected")
	}
}

func TestDivergence_WindowBeforeSeriesStart(t *testing.T) {
	s := divergenceSeries([]float64{10, 9}, []float64{40, 30})
	if s.BottomDivergence(1, 10) {
		t.Error("lookback reaching before the series start must report false")
	}
}
