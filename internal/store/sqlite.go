package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/junzhu/rotor/internal/contracts"
)

// ErrRunNotFound is returned when a run ID does not exist in the store.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is the persisted summary of one finished backtest run.
type RunRecord struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	StrategyID     string    `json:"strategy_id"`
	ConfigHash     string    `json:"config_hash"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalEquity    float64   `json:"final_equity"`
	TotalReturn    float64   `json:"total_return"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	Sharpe         float64   `json:"sharpe"`
	Trades         int       `json:"trades"`
}

// SQLiteResults persists finished runs and their transaction logs to a local
// SQLite file so they survive the process and are browsable over the API.
type SQLiteResults struct {
	db *sql.DB
}

const resultsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at      TEXT NOT NULL,
	strategy_id     TEXT NOT NULL,
	config_hash     TEXT NOT NULL,
	start_date      TEXT NOT NULL,
	end_date        TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity    REAL NOT NULL,
	total_return    REAL NOT NULL,
	max_drawdown    REAL NOT NULL,
	sharpe          REAL NOT NULL,
	trades          INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	run_id     INTEGER NOT NULL REFERENCES runs(id),
	seq        INTEGER NOT NULL,
	trade_date TEXT NOT NULL,
	code       TEXT NOT NULL,
	side       TEXT NOT NULL,
	shares     INTEGER NOT NULL,
	price      REAL NOT NULL,
	gross      REAL NOT NULL,
	commission REAL NOT NULL,
	stamp_tax  REAL NOT NULL,
	slippage   REAL NOT NULL,
	transfer_fee REAL NOT NULL,
	cash_after REAL NOT NULL,
	realized_pnl REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, seq)
);
`

// NewSQLiteResults opens (or creates) the result store at dbPath.
func NewSQLiteResults(dbPath string) (*SQLiteResults, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results schema: %w", err)
	}
	return &SQLiteResults{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteResults) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run record and its transaction log atomically, returning
// the new run ID.
func (s *SQLiteResults) SaveRun(ctx context.Context, rec RunRecord, txns []contracts.Transaction) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (created_at, strategy_id, config_hash, start_date, end_date,
			initial_capital, final_equity, total_return, max_drawdown, sharpe, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		rec.StrategyID, rec.ConfigHash,
		rec.StartDate.Format("2006-01-02"), rec.EndDate.Format("2006-01-02"),
		rec.InitialCapital, rec.FinalEquity, rec.TotalReturn, rec.MaxDrawdown,
		rec.Sharpe, len(txns),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (run_id, seq, trade_date, code, side, shares, price,
			gross, commission, stamp_tax, slippage, transfer_fee, cash_after, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx, runID, t.Seq, t.Date.Format("2006-01-02"),
			t.Code, string(t.Side), t.Shares, t.Price, t.Gross,
			t.Costs.Commission, t.Costs.StampTax, t.Costs.Slippage, t.Costs.TransferFee,
			t.CashAfter, t.RealizedPnL,
		); err != nil {
			return 0, fmt.Errorf("insert transaction %d: %w", t.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns all run records, newest first.
func (s *SQLiteResults) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, strategy_id, config_hash, start_date, end_date,
			initial_capital, final_equity, total_return, max_drawdown, sharpe, trades
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns one run record by ID.
func (s *SQLiteResults) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, strategy_id, config_hash, start_date, end_date,
			initial_capital, final_equity, total_return, max_drawdown, sharpe, trades
		FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Transactions returns the trade log of a run in original order.
func (s *SQLiteResults) Transactions(ctx context.Context, runID int64) ([]contracts.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, trade_date, code, side, shares, price, gross,
			commission, stamp_tax, slippage, transfer_fee, cash_after, realized_pnl
		FROM transactions WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []contracts.Transaction
	for rows.Next() {
		var t contracts.Transaction
		var dateStr, side string
		if err := rows.Scan(&t.Seq, &dateStr, &t.Code, &side, &t.Shares, &t.Price, &t.Gross,
			&t.Costs.Commission, &t.Costs.StampTax, &t.Costs.Slippage, &t.Costs.TransferFee,
			&t.CashAfter, &t.RealizedPnL); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, err
		}
		t.Side = contracts.Side(side)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var created, start, end string
	err := row.Scan(&rec.ID, &created, &rec.StrategyID, &rec.ConfigHash, &start, &end,
		&rec.InitialCapital, &rec.FinalEquity, &rec.TotalReturn, &rec.MaxDrawdown,
		&rec.Sharpe, &rec.Trades)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	rec.StartDate, _ = time.Parse("2006-01-02", start)
	rec.EndDate, _ = time.Parse("2006-01-02", end)
	return rec, nil
}
