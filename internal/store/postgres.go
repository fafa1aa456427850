package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/junzhu/rotor/internal/contracts"
)

// PostgresBars reads weekly bars and corporate actions from Postgres. The
// schema matches what the data-collection side writes:
//
//	data.weekly_bars(stock_code, bar_date, open_price, high_price,
//	                 low_price, close_price, volume)
//	data.corporate_actions(stock_code, ex_date, action_type,
//	                       cash_per_share, share_ratio, rights_price)
type PostgresBars struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ BarSource = (*PostgresBars)(nil)

// NewPostgresBars creates a PostgresBars source.
func NewPostgresBars(pool *pgxpool.Pool) *PostgresBars {
	return &PostgresBars{pool: pool}
}

// Codes returns all distinct stock codes with bars, sorted.
func (p *PostgresBars) Codes(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT stock_code FROM data.weekly_bars ORDER BY stock_code`)
	if err != nil {
		return nil, fmt.Errorf("query codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Bars returns the full weekly series for a code, oldest first.
func (p *PostgresBars) Bars(ctx context.Context, code string) ([]contracts.Bar, error) {
	query := `
		SELECT stock_code, bar_date, open_price, high_price, low_price, close_price, volume
		FROM data.weekly_bars
		WHERE stock_code = $1
		ORDER BY bar_date ASC
	`

	rows, err := p.pool.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", code, err)
	}
	defer rows.Close()

	var bars []contracts.Bar
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Code, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := contracts.ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("bars for %s: %w", code, err)
	}
	return bars, nil
}

// Actions returns the corporate-action events for a code, ordered by ex-date.
func (p *PostgresBars) Actions(ctx context.Context, code string) ([]contracts.CorporateAction, error) {
	query := `
		SELECT stock_code, ex_date, action_type, cash_per_share, share_ratio, rights_price
		FROM data.corporate_actions
		WHERE stock_code = $1
		ORDER BY ex_date ASC
	`

	rows, err := p.pool.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("query actions for %s: %w", code, err)
	}
	defer rows.Close()

	var actions []contracts.CorporateAction
	for rows.Next() {
		var a contracts.CorporateAction
		if err := rows.Scan(&a.Code, &a.ExDate, &a.Type, &a.CashPerShare, &a.ShareRatio, &a.RightsPrice); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
