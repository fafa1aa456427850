package cost

import (
	"math"
	"testing"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/strategyconfig"
)

func testCosts() strategyconfig.Costs {
	return strategyconfig.Costs{
		CommissionRate:  0.00025,
		MinCommission:   5.0,
		StampTaxRate:    0.0005,
		SlippageRate:    0.001,
		TransferFeeRate: 0.00001,
	}
}

func TestQuote_Buy(t *testing.T) {
	m := NewModel(testCosts())
	q := m.Quote(contracts.SideBuy, 50.0, 1000)

	gross := 50000.0
	if math.Abs(q.Commission-gross*0.00025) > 1e-9 {
		t.Errorf("commission = %v", q.Commission)
	}
	if q.StampTax != 0 {
		t.Errorf("stamp tax on a buy = %v, want 0", q.StampTax)
	}
	if math.Abs(q.Slippage-gross*0.001) > 1e-9 {
		t.Errorf("slippage = %v", q.Slippage)
	}
	if math.Abs(q.TransferFee-gross*0.00001) > 1e-9 {
		t.Errorf("transfer fee = %v", q.TransferFee)
	}
}

func TestQuote_SellIncludesStampTax(t *testing.T) {
	m := NewModel(testCosts())
	q := m.Quote(contracts.SideSell, 50.0, 1000)

	if math.Abs(q.StampTax-50000*0.0005) > 1e-9 {
		t.Errorf("stamp tax = %v", q.StampTax)
	}
}

func TestQuote_MinimumCommission(t *testing.T) {
	m := NewModel(testCosts())
	// Gross 1000 * 0.00025 = 0.25, below the 5.0 floor.
	q := m.Quote(contracts.SideBuy, 10.0, 100)

	if q.Commission != 5.0 {
		t.Errorf("commission = %v, want minimum 5.0", q.Commission)
	}
}

func TestBuyOutlay(t *testing.T) {
	m := NewModel(testCosts())
	q := m.Quote(contracts.SideBuy, 50.0, 1000)

	want := 50000 + q.Total()
	if math.Abs(m.BuyOutlay(50.0, 1000)-want) > 1e-9 {
		t.Errorf("BuyOutlay = %v, want %v", m.BuyOutlay(50.0, 1000), want)
	}
}

func TestCostBreakdown_Total(t *testing.T) {
	b := contracts.CostBreakdown{Commission: 1, StampTax: 2, Slippage: 3, TransferFee: 4}
	if b.Total() != 10 {
		t.Errorf("Total() = %v, want 10", b.Total())
	}
}
