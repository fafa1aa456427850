package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junzhu/rotor/internal/contracts"
)

func openResults(t *testing.T) *SQLiteResults {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	s, err := NewSQLiteResults(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() RunRecord {
	return RunRecord{
		StrategyID:     "default",
		ConfigHash:     "abc123",
		StartDate:      time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		InitialCapital: 1000000,
		FinalEquity:    1083000,
		TotalReturn:    0.083,
		MaxDrawdown:    0.061,
		Sharpe:         1.12,
	}
}

func TestSQLiteResults_SaveAndGetRun(t *testing.T) {
	s := openResults(t)
	ctx := context.Background()

	txns := []contracts.Transaction{
		{
			Seq:       1,
			Date:      time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC),
			Code:      "600036",
			Side:      contracts.SideBuy,
			Shares:    1000,
			Price:     36.0,
			Gross:     36000,
			Costs:     contracts.CostBreakdown{Commission: 10.8, Slippage: 36.0, TransferFee: 0.72},
			CashAfter: 963952.48,
		},
		{
			Seq:         2,
			Date:        time.Date(2023, 8, 11, 0, 0, 0, 0, time.UTC),
			Code:        "600036",
			Side:        contracts.SideSell,
			Shares:      500,
			Price:       40.0,
			Gross:       20000,
			Costs:       contracts.CostBreakdown{Commission: 6.0, StampTax: 20.0, Slippage: 20.0, TransferFee: 0.4},
			CashAfter:   983906.08,
			RealizedPnL: 1929.84,
		},
	}

	id, err := s.SaveRun(ctx, sampleRun(), txns)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	rec, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "default", rec.StrategyID)
	assert.Equal(t, "abc123", rec.ConfigHash)
	assert.Equal(t, 2, rec.Trades)
	assert.InDelta(t, 0.083, rec.TotalReturn, 1e-9)
	assert.Equal(t, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), rec.StartDate)

	got, err := s.Transactions(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, contracts.SideBuy, got[0].Side)
	assert.Equal(t, int64(1000), got[0].Shares)
	assert.InDelta(t, 36.0, got[0].Costs.Slippage, 1e-9)
	assert.Equal(t, contracts.SideSell, got[1].Side)
	assert.InDelta(t, 1929.84, got[1].RealizedPnL, 1e-9)
	assert.InDelta(t, 20.0, got[1].Costs.StampTax, 1e-9)
}

func TestSQLiteResults_ListRunsNewestFirst(t *testing.T) {
	s := openResults(t)
	ctx := context.Background()

	first, err := s.SaveRun(ctx, sampleRun(), nil)
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, sampleRun(), nil)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
}

func TestSQLiteResults_GetRunNotFound(t *testing.T) {
	s := openResults(t)

	_, err := s.GetRun(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLiteResults_TransactionsEmptyRun(t *testing.T) {
	s := openResults(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRun(), nil)
	require.NoError(t, err)

	txns, err := s.Transactions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, txns)
}
