package sizing

import (
	"testing"

	"github.com/junzhu/rotor/internal/cost"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

func testSizer() *Sizer {
	return NewSizer(strategyconfig.Portfolio{
		InitialCapital:   1_000_000,
		RotationFraction: 0.10,
		LotSize:          100,
		MaxWeight:        0.25,
		MaxPositions:     8,
		CashReserve:      0.05,
		SellFraction:     0.50,
	}, cost.NewModel(strategyconfig.Costs{}))
}

func snapshot(cash, equity float64, shares map[string]int64, value map[string]float64) Snapshot {
	if shares == nil {
		shares = map[string]int64{}
	}
	if value == nil {
		value = map[string]float64{}
	}
	return Snapshot{
		Cash: cash, Equity: equity,
		Positions: len(shares),
		Shares:    shares, Value: value,
	}
}

func TestSizeBuy_LotFlooring(t *testing.T) {
	s := testSizer()
	// Target 10% of 500,000 = 50,000. At 33.30 that is 1501.5 shares,
	// floored to 15 lots of 100.
	snap := snapshot(400_000, 500_000, nil, nil)

	if got := s.SizeBuy("600036", 33.30, snap); got != 1500 {
		t.Errorf("SizeBuy = %d, want 1500", got)
	}
}

func TestSizeBuy_CashReserveClips(t *testing.T) {
	s := testSizer()
	// Target 100,000 but only 60,000 cash against a 50,000 reserve: 10,000
	// available, 100 shares at 99.
	snap := snapshot(60_000, 1_000_000, nil, nil)

	if got := s.SizeBuy("600036", 99.0, snap); got != 100 {
		t.Errorf("SizeBuy = %d, want 100", got)
	}
}

func TestSizeBuy_MaxWeightHeadroom(t *testing.T) {
	s := testSizer()
	// Position already at 24% of equity; only 1% headroom remains.
	snap := snapshot(500_000, 1_000_000,
		map[string]int64{"600036": 2400}, map[string]float64{"600036": 240_000})

	got := s.SizeBuy("600036", 99.0, snap)
	if got != 100 {
		t.Errorf("SizeBuy = %d, want 100 (10,000 headroom at 99)", got)
	}
}

func TestSizeBuy_FullBookSkipsNewNames(t *testing.T) {
	s := testSizer()
	shares := map[string]int64{}
	value := map[string]float64{}
	for _, code := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		shares[code] = 100
		value[code] = 10_000
	}
	snap := snapshot(500_000, 1_000_000, shares, value)

	if got := s.SizeBuy("new", 50.0, snap); got != 0 {
		t.Errorf("SizeBuy for a 9th name = %d, want 0", got)
	}

	// Topping up an existing name is still allowed.
	if got := s.SizeBuy("a", 50.0, snap); got == 0 {
		t.Error("SizeBuy should size a top-up of a held name")
	}
}

func TestSizeBuy_ShrinksUntilCostsFit(t *testing.T) {
	costly := NewSizer(strategyconfig.Portfolio{
		RotationFraction: 1.0,
		LotSize:          100,
		MaxWeight:        1.0,
		MaxPositions:     8,
		CashReserve:      0,
		SellFraction:     0.50,
	}, cost.NewModel(strategyconfig.Costs{CommissionRate: 0.01}))

	// Target spends all cash on shares; commission forces one lot off.
	snap := snapshot(10_000, 10_000, nil, nil)
	got := costly.SizeBuy("600036", 10.0, snap)
	if got != 900 {
		t.Errorf("SizeBuy = %d, want 900 after shrinking for costs", got)
	}
}

func TestSizeBuy_CostsNeverDipIntoReserve(t *testing.T) {
	s := NewSizer(strategyconfig.Portfolio{
		RotationFraction: 1.0,
		LotSize:          100,
		MaxWeight:        1.0,
		MaxPositions:     8,
		CashReserve:      0.05,
		SellFraction:     0.50,
	}, cost.NewModel(strategyconfig.Costs{CommissionRate: 0.01}))

	// 15,000 cash against a 5,000 reserve leaves 10,000. The gross target
	// fills it exactly, so the commission must shrink the order rather than
	// spend reserve cash.
	snap := snapshot(15_000, 100_000, nil, nil)
	got := s.SizeBuy("600036", 10.0, snap)
	if got != 900 {
		t.Errorf("SizeBuy = %d, want 900 (10,100 outlay would breach the reserve)", got)
	}
}

func TestSizeBuy_MinWeightSkipsTinyOpenings(t *testing.T) {
	s := NewSizer(strategyconfig.Portfolio{
		RotationFraction: 0.10,
		LotSize:          100,
		MinWeight:        0.02,
		MaxWeight:        0.25,
		MaxPositions:     8,
		CashReserve:      0.05,
		SellFraction:     0.50,
	}, cost.NewModel(strategyconfig.Costs{}))

	// Available cash caps the order at 10,000, under the 20,000 minimum
	// opening weight for a 1,000,000 book.
	snap := snapshot(62_000, 1_000_000, nil, nil)
	if got := s.SizeBuy("600036", 100.0, snap); got != 0 {
		t.Errorf("SizeBuy = %d, want 0 for an opening below min weight", got)
	}

	// Topping up a held name is exempt.
	held := snapshot(62_000, 1_000_000,
		map[string]int64{"600036": 100}, map[string]float64{"600036": 10_000})
	if got := s.SizeBuy("600036", 100.0, held); got != 100 {
		t.Errorf("SizeBuy top-up = %d, want 100", got)
	}
}

func TestSizeBuy_Zero(t *testing.T) {
	s := testSizer()
	if got := s.SizeBuy("600036", 0, snapshot(100_000, 100_000, nil, nil)); got != 0 {
		t.Errorf("SizeBuy with zero price = %d, want 0", got)
	}
	// Target below one lot's price.
	if got := s.SizeBuy("600036", 500.0, snapshot(100_000, 100_000, nil, nil)); got != 0 {
		t.Errorf("SizeBuy below one lot = %d, want 0", got)
	}
}

func TestSizeSell_ConfidenceScaling(t *testing.T) {
	s := testSizer()
	snap := snapshot(0, 500_000,
		map[string]int64{"600036": 1000}, map[string]float64{"600036": 50_000})

	// Full confidence sells the configured fraction.
	if got := s.SizeSell("600036", 3, snap); got != 500 {
		t.Errorf("SizeSell(conf 3) = %d, want 500", got)
	}
	// Two of three dimensions halves the fraction.
	if got := s.SizeSell("600036", 2, snap); got != 200 {
		t.Errorf("SizeSell(conf 2) = %d, want 200", got)
	}
}

func TestSizeSell_NotHeld(t *testing.T) {
	s := testSizer()
	if got := s.SizeSell("600036", 3, snapshot(0, 0, nil, nil)); got != 0 {
		t.Errorf("SizeSell of unheld stock = %d, want 0", got)
	}
}

func TestSizeSell_FloorsBelowOneLot(t *testing.T) {
	s := testSizer()
	snap := snapshot(0, 10_000,
		map[string]int64{"600036": 100}, map[string]float64{"600036": 5_000})

	// Half of 100 at confidence 2 is 25 shares, under one lot.
	if got := s.SizeSell("600036", 2, snap); got != 0 {
		t.Errorf("SizeSell = %d, want 0", got)
	}
}
