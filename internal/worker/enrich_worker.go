package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"insight/internal/amqp"
	"insight/internal/core"
	"insight/internal/insights"
	"insight/internal/report"
)

// BatchReader supplies the stored transactions for ingestion batches.
type BatchReader interface {
	ListRawByBatch(ctx context.Context, batchID string) ([]core.RawTransaction, error)
	ListRawTransactions(ctx context.Context) ([]core.RawTransaction, error)
}

// ReportBuilder assembles the monthly insights report for export.
type ReportBuilder interface {
	MonthlyReport(ctx context.Context, year, month int) (report.Monthly, error)
}

// EnrichWorker enriches newly ingested batches ahead of queries and exports
// monthly reports to the configured sink.
type EnrichWorker struct {
	storage     BatchReader
	enricher    *insights.Enricher
	reports     ReportBuilder
	writer      report.Writer
	concurrency int
}

func NewEnrichWorker(storage BatchReader, enricher *insights.Enricher, reports ReportBuilder, writer report.Writer, concurrency int) *EnrichWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &EnrichWorker{
		storage:     storage,
		enricher:    enricher,
		reports:     reports,
		writer:      writer,
		concurrency: concurrency,
	}
}

// HandleBatchMessage enriches every transaction in a freshly ingested batch.
// Results land in the enricher's memo cache so the first insight query after
// ingestion doesn't pay the enrichment cost.
func (w *EnrichWorker) HandleBatchMessage(ctx context.Context, msg *amqp.BatchIngestedMessage) error {
	slog.InfoContext(ctx, "Processing batch message",
		"batch_id", msg.BatchID,
		"tx_count", msg.TxCount)

	transactions, err := w.storage.ListRawByBatch(ctx, msg.BatchID)
	if err != nil {
		return fmt.Errorf("load batch %s: %w", msg.BatchID, err)
	}
	if len(transactions) == 0 {
		slog.WarnContext(ctx, "Batch has no stored transactions", "batch_id", msg.BatchID)
		return nil
	}

	categories, err := w.enrichAll(ctx, transactions)
	if err != nil {
		return fmt.Errorf("enrich batch %s: %w", msg.BatchID, err)
	}

	slog.InfoContext(ctx, "Batch enriched",
		"batch_id", msg.BatchID,
		"tx_count", len(transactions),
		"categories", len(categories))

	return nil
}

// WarmCache enriches the whole stored history. Run at worker startup to
// recover from missed batch messages.
func (w *EnrichWorker) WarmCache(ctx context.Context) error {
	transactions, err := w.storage.ListRawTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions for warmup: %w", err)
	}
	if len(transactions) == 0 {
		slog.InfoContext(ctx, "No stored transactions to warm up")
		return nil
	}

	categories, err := w.enrichAll(ctx, transactions)
	if err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	slog.InfoContext(ctx, "Enrichment cache warmed",
		"tx_count", len(transactions),
		"categories", len(categories))

	return nil
}

// enrichAll fans enrichment out over a bounded worker group and returns the
// set of categories seen.
func (w *EnrichWorker) enrichAll(ctx context.Context, transactions []core.RawTransaction) (map[string]int, error) {
	var (
		mu         sync.Mutex
		categories = make(map[string]int)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, record := range transactions {
		record := record
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			enriched := w.enricher.Enrich(record)

			mu.Lock()
			categories[enriched.Category]++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return categories, nil
}

// HandleExportMessage writes the requested monthly report to the report sink.
func (w *EnrichWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	if w.writer == nil {
		slog.WarnContext(ctx, "No report writer configured, skipping export",
			"year", msg.Year, "month", msg.Month)
		return nil
	}

	monthly, err := w.reports.MonthlyReport(ctx, msg.Year, msg.Month)
	if err != nil {
		return fmt.Errorf("build report %d-%02d: %w", msg.Year, msg.Month, err)
	}

	ref, err := w.writer.WriteMonthly(ctx, monthly)
	if err != nil {
		return fmt.Errorf("write report %d-%02d: %w", msg.Year, msg.Month, err)
	}

	slog.InfoContext(ctx, "Monthly report exported",
		"year", msg.Year,
		"month", msg.Month,
		"sheets_ref", ref)

	return nil
}
