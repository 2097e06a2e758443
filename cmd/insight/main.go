package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insight/internal/amqp"
	"insight/internal/cli"
	apphttp "insight/internal/http"
	"insight/internal/insights"
	applog "insight/internal/log"
	"insight/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional; ingestion works without it, batches just aren't
	// pre-enriched by the worker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without batch notifications", "error", err)
		} else {
			defer amqpClient.Close()
		}
	}

	enricher := insights.NewEnricherWithCache(cfg.EnrichCacheSize, cfg.EnrichCacheTTL)
	enricher.Cache().StartJanitor(cfg.EnrichCacheTTL)
	defer enricher.Cache().StopJanitor()

	recurringOpts := insights.RecurringOptions{
		MinTransactions:  cfg.RecurringMinTransactions,
		MaxVarianceRatio: cfg.RecurringMaxVariance,
		MaxResults:       cfg.RecurringMaxResults,
	}

	insightsService := services.NewInsightsService(repo, repo, enricher, recurringOpts)
	ingestService := services.NewIngestService(repo, amqpClient)

	srv := apphttp.NewServer(":"+cfg.Port, insightsService, ingestService)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting insight server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
