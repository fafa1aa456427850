package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/junzhu/rotor/internal/contracts"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/pkg/logger"
)

// RunHandler serves persisted backtest runs and their trade logs.
type RunHandler struct {
	results *store.SQLiteResults
	logger  *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(results *store.SQLiteResults, log *logger.Logger) *RunHandler {
	return &RunHandler{
		results: results,
		logger:  log,
	}
}

// ListRuns returns all persisted runs, newest first
// GET /api/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.results.ListRuns(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// GetRun returns one run record
// GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	run, err := h.results.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// GetTransactions returns a run's trade log in execution order
// GET /api/runs/{id}/transactions
func (h *RunHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	if _, err := h.results.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	txns, err := h.results.Transactions(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get transactions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       id,
		"count":        len(txns),
		"transactions": txns,
	})
}

// GetSummary returns a run's headline metrics plus trade-log aggregates
// GET /api/runs/{id}/summary
func (h *RunHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	run, err := h.results.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	txns, err := h.results.Transactions(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get transactions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	respondJSON(w, http.StatusOK, buildSummary(run, txns))
}

// runSummary is the response body of GET /api/runs/{id}/summary.
type runSummary struct {
	Run         *store.RunRecord `json:"run"`
	BuyTrades   int              `json:"buy_trades"`
	SellTrades  int              `json:"sell_trades"`
	Wins        int              `json:"wins"`
	WinRate     float64          `json:"win_rate"`
	TotalCosts  float64          `json:"total_costs"`
	RealizedPnL float64          `json:"realized_pnl"`
}

func buildSummary(run *store.RunRecord, txns []contracts.Transaction) runSummary {
	s := runSummary{Run: run}
	for _, tx := range txns {
		s.TotalCosts += tx.Costs.Total()
		switch tx.Side {
		case contracts.SideBuy:
			s.BuyTrades++
		case contracts.SideSell:
			s.SellTrades++
			s.RealizedPnL += tx.RealizedPnL
			if tx.RealizedPnL > 0 {
				s.Wins++
			}
		}
	}
	if s.SellTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.SellTrades)
	}
	return s
}

func runID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid run ID")
		return 0, false
	}
	return id, true
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
