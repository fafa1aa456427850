package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCSVBars_Codes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "600519.csv", "date,open,high,low,close,volume\n")
	writeFile(t, dir, "600036.csv", "date,open,high,low,close,volume\n")
	writeFile(t, dir, "600036.actions.csv", "date,type,cash_per_share,share_ratio,rights_price\n")
	writeFile(t, dir, "notes.txt", "ignored")

	src := NewCSVBars(dir)
	codes, err := src.Codes(context.Background())
	if err != nil {
		t.Fatalf("Codes: %v", err)
	}
	if len(codes) != 2 || codes[0] != "600036" || codes[1] != "600519" {
		t.Errorf("Codes = %v, want [600036 600519]", codes)
	}
}

func TestCSVBars_Bars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "600036.csv", strings.Join([]string{
		"date,open,high,low,close,volume",
		"2024-01-05,35.0,36.5,34.8,36.0,120000000",
		"2024-01-12,36.0,37.2,35.5,36.8,98000000",
		"",
	}, "\n"))

	src := NewCSVBars(dir)
	bars, err := src.Bars(context.Background(), "600036")
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}

	first := bars[0]
	if first.Code != "600036" {
		t.Errorf("Code = %q, want 600036", first.Code)
	}
	if !first.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", first.Date)
	}
	if first.Open != 35.0 || first.High != 36.5 || first.Low != 34.8 || first.Close != 36.0 {
		t.Errorf("unexpected OHLC: %+v", first)
	}
	if first.Volume != 120000000 {
		t.Errorf("Volume = %d, want 120000000", first.Volume)
	}
}

func TestCSVBars_BarsRejectsBadSeries(t *testing.T) {
	dir := t.TempDir()

	// Second row moves backwards in time.
	writeFile(t, dir, "600036.csv", strings.Join([]string{
		"date,open,high,low,close,volume",
		"2024-01-12,36.0,37.2,35.5,36.8,98000000",
		"2024-01-05,35.0,36.5,34.8,36.0,120000000",
		"",
	}, "\n"))

	src := NewCSVBars(dir)
	if _, err := src.Bars(context.Background(), "600036"); err == nil {
		t.Error("expected error for out-of-order series")
	}
}

func TestCSVBars_BarsRejectsBadRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "600036.csv", strings.Join([]string{
		"date,open,high,low,close,volume",
		"2024-01-05,35.0,abc,34.8,36.0,120000000",
		"",
	}, "\n"))

	src := NewCSVBars(dir)
	if _, err := src.Bars(context.Background(), "600036"); err == nil {
		t.Error("expected error for non-numeric field")
	}
}

func TestCSVBars_Actions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "600036.actions.csv", strings.Join([]string{
		"date,type,cash_per_share,share_ratio,rights_price",
		"2024-06-14,bonus,0,0.3,0",
		"2024-05-10,dividend,1.2,0,0",
		"",
	}, "\n"))

	src := NewCSVBars(dir)
	actions, err := src.Actions(context.Background(), "600036")
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(actions))
	}

	// Sorted by ex-date: dividend first.
	if actions[0].Type != "dividend" || actions[0].CashPerShare != 1.2 {
		t.Errorf("first action = %+v, want dividend 1.2", actions[0])
	}
	if actions[1].Type != "bonus" || actions[1].ShareRatio != 0.3 {
		t.Errorf("second action = %+v, want bonus 0.3", actions[1])
	}
	if !actions[0].ExDate.Before(actions[1].ExDate) {
		t.Error("actions not sorted by ex-date")
	}
}

func TestCSVBars_ActionsMissingFile(t *testing.T) {
	src := NewCSVBars(t.TempDir())
	actions, err := src.Actions(context.Background(), "600036")
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("got %d actions, want 0", len(actions))
	}
}
