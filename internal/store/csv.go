package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/junzhu/rotor/internal/contracts"
)

// CSVBars reads weekly bars from a directory of per-stock CSV files:
// <code>.csv with header date,open,high,low,close,volume, and optional
// <code>.actions.csv with header date,type,cash_per_share,share_ratio,rights_price.
type CSVBars struct {
	dir string
}

// Compile-time interface check.
var _ BarSource = (*CSVBars)(nil)

// NewCSVBars creates a CSVBars source rooted at dir.
func NewCSVBars(dir string) *CSVBars {
	return &CSVBars{dir: dir}
}

// Codes lists stock codes from the bar files in the directory, sorted.
func (c *CSVBars) Codes(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read bars dir: %w", err)
	}

	var codes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".actions.csv") {
			continue
		}
		codes = append(codes, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(codes)
	return codes, nil
}

// Bars loads and validates the bar series for a code.
func (c *CSVBars) Bars(_ context.Context, code string) ([]contracts.Bar, error) {
	path := filepath.Join(c.dir, code+".csv")
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	bars := make([]contracts.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%s row %d: expected 6 columns, got %d", path, i+2, len(row))
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		nums, err := parseFloats(row[1:5])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		volume, err := strconv.ParseInt(row[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: volume: %w", path, i+2, err)
		}
		bars = append(bars, contracts.Bar{
			Code:   code,
			Date:   date,
			Open:   nums[0],
			High:   nums[1],
			Low:    nums[2],
			Close:  nums[3],
			Volume: volume,
		})
	}

	if err := contracts.ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// Actions loads corporate-action events for a code. A missing actions file
// means no events.
func (c *CSVBars) Actions(_ context.Context, code string) ([]contracts.CorporateAction, error) {
	path := filepath.Join(c.dir, code+".actions.csv")
	rows, err := readCSV(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	actions := make([]contracts.CorporateAction, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("%s row %d: expected 5 columns, got %d", path, i+2, len(row))
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		nums, err := parseFloats(row[2:5])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		actions = append(actions, contracts.CorporateAction{
			Code:         code,
			ExDate:       date,
			Type:         contracts.CorporateActionType(row[1]),
			CashPerShare: nums[0],
			ShareRatio:   nums[1],
			RightsPrice:  nums[2],
		})
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i].ExDate.Before(actions[j].ExDate) })
	return actions, nil
}

// readCSV returns the data rows of a CSV file, skipping the header line.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
