package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/junzhu/rotor/internal/api/handlers"
	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/pkg/logger"
)

func newTestServer(t *testing.T) (*httptest.Server, int64) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	results, err := store.NewSQLiteResults(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open results: %v", err)
	}
	t.Cleanup(func() { results.Close() })

	rec := store.RunRecord{
		StrategyID:     "default",
		ConfigHash:     "abc123",
		StartDate:      time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		InitialCapital: 1000000,
		FinalEquity:    1050000,
		TotalReturn:    0.05,
	}
	txns := []contracts.Transaction{
		{
			Seq:    1,
			Date:   time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC),
			Code:   "600036",
			Side:   contracts.SideBuy,
			Shares: 1000,
			Price:  36.0,
			Gross:  36000,
		},
		{
			Seq:         2,
			Date:        time.Date(2023, 8, 11, 0, 0, 0, 0, time.UTC),
			Code:        "600036",
			Side:        contracts.SideSell,
			Shares:      500,
			Price:       40.0,
			Gross:       20000,
			RealizedPnL: 1500,
		},
	}
	runID, err := results.SaveRun(context.Background(), rec, txns)
	if err != nil {
		t.Fatalf("save run: %v", err)
	}

	router := NewRouter(handlers.NewRunHandler(results, logger.Nop()), logger.Nop())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, runID
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := getJSON(t, srv.URL+"/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["service"] != "rotor-api" {
		t.Errorf("service = %v, want rotor-api", body["service"])
	}
}

func TestListRunsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := getJSON(t, srv.URL+"/api/runs", http.StatusOK)
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}
	runs := body["runs"].([]interface{})
	run := runs[0].(map[string]interface{})
	if run["strategy_id"] != "default" {
		t.Errorf("strategy_id = %v", run["strategy_id"])
	}
}

func TestGetRunEndpoint(t *testing.T) {
	srv, runID := newTestServer(t)

	body := getJSON(t, srv.URL+"/api/runs/1", http.StatusOK)
	if int64(body["id"].(float64)) != runID {
		t.Errorf("id = %v, want %d", body["id"], runID)
	}
	if body["config_hash"] != "abc123" {
		t.Errorf("config_hash = %v", body["config_hash"])
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	getJSON(t, srv.URL+"/api/runs/999", http.StatusNotFound)
}

func TestGetRunInvalidID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/runs/not-a-number")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 400 or 404", resp.StatusCode)
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := getJSON(t, srv.URL+"/api/runs/1/transactions", http.StatusOK)
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := getJSON(t, srv.URL+"/api/runs/1/summary", http.StatusOK)
	if body["buy_trades"].(float64) != 1 {
		t.Errorf("buy_trades = %v, want 1", body["buy_trades"])
	}
	if body["sell_trades"].(float64) != 1 {
		t.Errorf("sell_trades = %v, want 1", body["sell_trades"])
	}
	if body["wins"].(float64) != 1 {
		t.Errorf("wins = %v, want 1", body["wins"])
	}
}
