package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"insight/internal/core"
	applog "insight/internal/log"
)

const maxIngestBody = 10 << 20 // 10 MiB

// handleSpending serves GET /api/insights/spending
func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spending, err := s.insights.Spending(r.Context(), window)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute spending", "window", window, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute spending")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":   window,
		"spending": emptyIfNil(spending),
	})
}

// handleRecurring serves GET /api/insights/recurring
func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recurring, err := s.insights.Recurring(r.Context(), window)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to detect recurring expenses", "window", window, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to detect recurring expenses")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":    window,
		"recurring": emptyIfNil(recurring),
	})
}

// handleSummary serves GET /api/insights/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.insights.Summarize(r.Context(), window)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute summary", "window", window, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	goals, err := s.insights.Goals(r.Context())
	if err != nil {
		// Goals are supplementary; serve the summary without them.
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to load goals", "error", err)
		goals = nil
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":  window,
		"summary": summary,
		"goals":   emptyIfNil(goals),
	})
}

// handleTransactions serves GET and POST /api/transactions
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleIngestTransactions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := s.insights.Transactions(r.Context(), window)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list transactions", "window", window, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":       window,
		"transactions": emptyIfNil(transactions),
	})
}

// ingestRequest accepts either a bare JSON array of transactions or an
// object wrapping one under "transactions".
type ingestRequest struct {
	Transactions []core.RawTransaction `json:"transactions"`
}

func (s *Server) handleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxIngestBody)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read request body: %v", err))
		return
	}

	transactions, err := decodeBatch(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(transactions) == 0 {
		writeError(w, http.StatusBadRequest, "empty transaction batch")
		return
	}

	batchID, count, err := s.ingester.IngestBatch(r.Context(), transactions)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to ingest batch", "tx_count", len(transactions), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to ingest batch")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"batchId": batchID,
		"count":   count,
	})
}

// decodeBatch accepts a bare JSON array of transactions or an object
// wrapping one under "transactions".
func decodeBatch(data []byte) ([]core.RawTransaction, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	if trimmed[0] == '[' {
		var transactions []core.RawTransaction
		if err := json.Unmarshal(trimmed, &transactions); err != nil {
			return nil, err
		}
		return transactions, nil
	}

	var req ingestRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, err
	}
	return req.Transactions, nil
}
