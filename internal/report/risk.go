package report

import (
	"math"
	"sort"
)

// HistoricalVaR computes value at risk from realized weekly returns by
// historical simulation. Losses come back as positive numbers; a portfolio
// with no losing week has zero VaR.
func HistoricalVaR(returns []float64, confidence float64) (valueAtRisk, expectedShortfall float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	if sorted[idx] < 0 {
		valueAtRisk = -sorted[idx]
	}

	// Expected shortfall is the mean return of the tail at or below VaR.
	var sum float64
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	if tail := sum / float64(idx+1); tail < 0 {
		expectedShortfall = -tail
	}

	return valueAtRisk, expectedShortfall
}
