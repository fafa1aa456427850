package indicator

import "math"

// BottomDivergence reports whether the bar at index i sets a new low close
// over the trailing lookback window while RSI does not set a new low there:
// price weakness without oscillator confirmation.
func (s *Series) BottomDivergence(i, lookback int) bool {
	lo := i - lookback + 1
	if lo < 0 {
		return false
	}
	minRSI := math.Inf(1)
	for j := lo; j <= i; j++ {
		if math.IsNaN(s.RSI[j]) {
			return false
		}
		if s.Bars[j].Close < s.Bars[i].Close {
			return false // not a new price low
		}
		if s.RSI[j] < minRSI {
			minRSI = s.RSI[j]
		}
	}
	return s.RSI[i] > minRSI
}

// TopDivergence reports whether the bar at index i sets a new high close over
// the trailing lookback window while RSI does not set a new high there.
func (s *Series) TopDivergence(i, lookback int) bool {
	lo := i - lookback + 1
	if lo < 0 {
		return false
	}
	maxRSI := math.Inf(-1)
	for j := lo; j <= i; j++ {
		if math.IsNaN(s.RSI[j]) {
			return false
		}
		if s.Bars[j].Close > s.Bars[i].Close {
			return false // not a new price high
		}
		if s.RSI[j] > maxRSI {
			maxRSI = s.RSI[j]
		}
	}
	return s.RSI[i] < maxRSI
}
