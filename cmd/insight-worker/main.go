package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insight/internal/amqp"
	"insight/internal/cli"
	"insight/internal/insights"
	applog "insight/internal/log"
	"insight/internal/report/factory"
	"insight/internal/services"
	"insight/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting insight-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	reportResult, err := factory.NewWriter(context.Background(), factory.Config{
		Type:          factory.BackendType(cfg.ReportBackend),
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.ReportSheetName,
		CredFile:      cfg.GoogleCredFile,
		CredJSON:      cfg.GoogleCredJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize report writer", "error", err)
		os.Exit(1)
	}
	if reportResult.Cleanup != nil {
		defer reportResult.Cleanup()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	enricher := insights.NewEnricherWithCache(cfg.EnrichCacheSize, cfg.EnrichCacheTTL)
	enricher.Cache().StartJanitor(cfg.EnrichCacheTTL)
	defer enricher.Cache().StopJanitor()

	recurringOpts := insights.RecurringOptions{
		MinTransactions:  cfg.RecurringMinTransactions,
		MaxVarianceRatio: cfg.RecurringMaxVariance,
		MaxResults:       cfg.RecurringMaxResults,
	}
	insightsService := services.NewInsightsService(repo, repo, enricher, recurringOpts)

	enrichWorker := worker.NewEnrichWorker(repo, enricher, insightsService, reportResult.Writer, cfg.WorkerConcurrency)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, enrich anything already stored in case batch messages
	// were missed while the worker was down.
	logger.Info("Performing startup cache warmup...")
	if err := enrichWorker.WarmCache(ctx); err != nil {
		logger.Error("Failed startup warmup", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		batchHandler := func(msg *amqp.BatchIngestedMessage) error {
			return enrichWorker.HandleBatchMessage(ctx, msg)
		}
		exportHandler := func(msg *amqp.ReportExportMessage) error {
			return enrichWorker.HandleExportMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeMessages(ctx, batchHandler, exportHandler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Publish an export for each month once it has closed.
	go runExportScheduler(ctx, amqpClient)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Worker stopped gracefully")
}

// runExportScheduler watches for month rollovers and requests an export of
// the month that just ended. The check interval is coarse on purpose; an
// export a few minutes late is fine.
func runExportScheduler(ctx context.Context, client *amqp.Client) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Month() == last.Month() && now.Year() == last.Year() {
				continue
			}
			prev := now.AddDate(0, 0, -now.Day())
			if err := client.PublishReportExport(ctx, prev.Year(), int(prev.Month())); err != nil {
				slog.ErrorContext(ctx, "Failed to publish report export", "error", err,
					"year", prev.Year(), "month", int(prev.Month()))
				continue
			}
			last = now
		}
	}
}
