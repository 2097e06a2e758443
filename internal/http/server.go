package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"insight/internal/core"
	applog "insight/internal/log"
	"insight/internal/middleware/ratelimit"
	"insight/internal/middleware/security"
	"insight/internal/middleware/trace"
)

// InsightsProvider supplies the computed insight views served by the API.
type InsightsProvider interface {
	Transactions(ctx context.Context, window core.TimeWindow) ([]core.EnrichedTransaction, error)
	Spending(ctx context.Context, window core.TimeWindow) ([]core.SpendingCategory, error)
	Recurring(ctx context.Context, window core.TimeWindow) ([]core.RecurringExpense, error)
	Summarize(ctx context.Context, window core.TimeWindow) (core.Summary, error)
	Goals(ctx context.Context) ([]core.GoalProgress, error)
}

// BatchIngester accepts raw transaction batches for storage and enrichment.
type BatchIngester interface {
	IngestBatch(ctx context.Context, transactions []core.RawTransaction) (batchID string, count int, err error)
}

type Server struct {
	http.Server
	insights InsightsProvider
	ingester BatchIngester

	logger      *applog.Logger
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, insights InsightsProvider, ingester BatchIngester) *Server {
	mux := http.NewServeMux()

	logger := applog.New(applog.Config{Component: applog.ComponentHTTP})
	structured := applog.NewStructuredLogger(logger)
	structured.RequestIDFromContext = trace.GetRequestID

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		insights:    insights,
		ingester:    ingester,
		logger:      logger,
		detector:    security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, structured)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.Handle("/api/insights/spending", s.protect(s.handleSpending))
	mux.Handle("/api/insights/recurring", s.protect(s.handleRecurring))
	mux.Handle("/api/insights/summary", s.protect(s.handleSummary))
	mux.Handle("/api/transactions", s.protect(s.handleTransactions))

	return s
}

// protect wraps an API handler in the tracing, logging, security header,
// and rate limiting middleware chain.
func (s *Server) protect(next http.HandlerFunc) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	chain := headers.Middleware(s.limitWrites(next))
	chain = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(chain)
	chain = applog.Middleware(s.logger)(chain)
	return s.tracer.Middleware(chain)
}

// limitWrites applies per-IP rate limiting to mutating requests. Reads are
// unlimited; batch ingestion is the expensive path.
func (s *Server) limitWrites(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.Allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ready")
}
