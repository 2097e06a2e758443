package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"insight/internal/core"
)

type fakeInsights struct {
	transactions []core.EnrichedTransaction
	spending     []core.SpendingCategory
	recurring    []core.RecurringExpense
	summary      core.Summary
	goals        []core.GoalProgress
	goalsErr     error
	err          error

	lastWindow core.TimeWindow
}

func (f *fakeInsights) Transactions(_ context.Context, window core.TimeWindow) ([]core.EnrichedTransaction, error) {
	f.lastWindow = window
	return f.transactions, f.err
}

func (f *fakeInsights) Spending(_ context.Context, window core.TimeWindow) ([]core.SpendingCategory, error) {
	f.lastWindow = window
	return f.spending, f.err
}

func (f *fakeInsights) Recurring(_ context.Context, window core.TimeWindow) ([]core.RecurringExpense, error) {
	f.lastWindow = window
	return f.recurring, f.err
}

func (f *fakeInsights) Summarize(_ context.Context, window core.TimeWindow) (core.Summary, error) {
	f.lastWindow = window
	return f.summary, f.err
}

func (f *fakeInsights) Goals(_ context.Context) ([]core.GoalProgress, error) {
	return f.goals, f.goalsErr
}

type fakeIngester struct {
	batchID string
	count   int
	err     error

	received []core.RawTransaction
}

func (f *fakeIngester) IngestBatch(_ context.Context, transactions []core.RawTransaction) (string, int, error) {
	f.received = transactions
	return f.batchID, f.count, f.err
}

func newTestServer(insights *fakeInsights, ingester *fakeIngester) *Server {
	srv := NewServer(":0", insights, ingester)
	srv.rateLimiter.Stop()
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSpending(t *testing.T) {
	insights := &fakeInsights{spending: []core.SpendingCategory{
		{Category: "Groceries", Amount: decimal.NewFromFloat(120), Count: 4, Percentage: 60},
	}}
	srv := newTestServer(insights, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/spending?window=thisMonth", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if insights.lastWindow != core.WindowThisMonth {
		t.Errorf("window passed to provider = %s, want thisMonth", insights.lastWindow)
	}

	var payload struct {
		Window   string                  `json:"window"`
		Spending []core.SpendingCategory `json:"spending"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(payload.Spending) != 1 || payload.Spending[0].Category != "Groceries" {
		t.Errorf("unexpected spending payload: %+v", payload.Spending)
	}
}

func TestHandleSpending_UnknownWindow(t *testing.T) {
	srv := newTestServer(&fakeInsights{}, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/spending?window=nonsense", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSpending_DefaultWindowIsAll(t *testing.T) {
	insights := &fakeInsights{}
	srv := newTestServer(insights, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/spending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if insights.lastWindow != core.WindowAll {
		t.Errorf("default window = %s, want all", insights.lastWindow)
	}
	// Empty result is [] in JSON, not null.
	if !strings.Contains(rec.Body.String(), `"spending":[]`) {
		t.Errorf("empty spending should serialize as []: %s", rec.Body.String())
	}
}

func TestHandleSpending_ProviderError(t *testing.T) {
	srv := newTestServer(&fakeInsights{err: errors.New("boom")}, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/spending", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleRecurring(t *testing.T) {
	insights := &fakeInsights{recurring: []core.RecurringExpense{
		{Merchant: "Netflix", Amount: decimal.NewFromFloat(9.99), Frequency: 3,
			NextDate: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)},
	}}
	srv := newTestServer(insights, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/recurring?window=last3Months", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload struct {
		Recurring []core.RecurringExpense `json:"recurring"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(payload.Recurring) != 1 || payload.Recurring[0].Merchant != "Netflix" {
		t.Errorf("unexpected recurring payload: %+v", payload.Recurring)
	}
}

func TestHandleSummary(t *testing.T) {
	insights := &fakeInsights{
		summary: core.Summary{
			Income:   decimal.NewFromFloat(2500),
			Expenses: decimal.NewFromFloat(1800),
			Net:      decimal.NewFromFloat(700),
		},
		goals: []core.GoalProgress{
			{Name: "Holiday", Target: decimal.NewFromInt(1000), Saved: decimal.NewFromInt(250), Progress: 0.25},
		},
	}
	srv := newTestServer(insights, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/summary?window=thisYear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload struct {
		Summary core.Summary        `json:"summary"`
		Goals   []core.GoalProgress `json:"goals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !payload.Summary.Net.Equal(decimal.NewFromFloat(700)) {
		t.Errorf("net = %s, want 700", payload.Summary.Net)
	}
	if len(payload.Goals) != 1 || payload.Goals[0].Name != "Holiday" || payload.Goals[0].Progress != 0.25 {
		t.Errorf("unexpected goals payload: %+v", payload.Goals)
	}
}

func TestHandleSummary_GoalsErrorIsNotFatal(t *testing.T) {
	insights := &fakeInsights{
		summary:  core.Summary{Net: decimal.NewFromFloat(100)},
		goalsErr: errors.New("goal storage down"),
	}
	srv := newTestServer(insights, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"goals":[]`) {
		t.Errorf("goals should degrade to []: %s", rec.Body.String())
	}
}

func TestHandleSummary_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeInsights{}, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodPost, "/api/insights/summary", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleIngestTransactions(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "bare array",
			body: `[{"transactionId":"tx-1","description":"NETFLIX.COM","amount":-9.99}]`,
		},
		{
			name: "wrapped object",
			body: `{"transactions":[{"transactionId":"tx-1","description":"NETFLIX.COM","amount":"-9.99"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingester := &fakeIngester{batchID: "batch-1", count: 1}
			srv := newTestServer(&fakeInsights{}, ingester)

			rec := doRequest(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
			}
			if len(ingester.received) != 1 || ingester.received[0].ID != "tx-1" {
				t.Errorf("ingester received %+v", ingester.received)
			}
			if !strings.Contains(rec.Body.String(), `"batchId":"batch-1"`) {
				t.Errorf("response missing batch ID: %s", rec.Body.String())
			}
		})
	}
}

func TestHandleIngestTransactions_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"transactions": [`},
		{"empty array", `[]`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeInsights{}, &fakeIngester{})

			rec := doRequest(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleListTransactions(t *testing.T) {
	insights := &fakeInsights{transactions: []core.EnrichedTransaction{
		{ID: "tx-1", Merchant: "Tesco", Category: "Groceries", Amount: decimal.NewFromFloat(-40)},
	}}
	srv := newTestServer(insights, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions?window=lastMonth", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if insights.lastWindow != core.WindowLastMonth {
		t.Errorf("window = %s, want lastMonth", insights.lastWindow)
	}
	if !strings.Contains(rec.Body.String(), `"Tesco"`) {
		t.Errorf("response missing transaction: %s", rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeInsights{}, &fakeIngester{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(&fakeInsights{}, &fakeIngester{})

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/summary", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
