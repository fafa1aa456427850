// Package store provides bar-data sources and the finished-run result store.
// Market-data retrieval itself lives outside this module; sources here only
// read data that already landed on disk or in a database.
package store

import (
	"context"

	"github.com/junzhu/rotor/internal/contracts"
)

// BarSource supplies per-stock weekly bar series and corporate-action events.
// Implementations must return bars ordered by strictly increasing date.
type BarSource interface {
	// Codes returns all stock codes the source has bars for, sorted.
	Codes(ctx context.Context) ([]string, error)

	// Bars returns the full weekly bar series for a code.
	Bars(ctx context.Context, code string) ([]contracts.Bar, error)

	// Actions returns the corporate-action events for a code, ordered by
	// ex-date. Sources without event data return an empty slice.
	Actions(ctx context.Context, code string) ([]contracts.CorporateAction, error)
}
