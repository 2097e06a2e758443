package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"insight/internal/amqp"
	"insight/internal/core"
	applog "insight/internal/log"
	"insight/internal/storage"
)

// IngestService orchestrates transaction ingestion across SQLite and AMQP
type IngestService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logger     *applog.StructuredLogger
}

func NewIngestService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *IngestService {
	return &IngestService{
		storage:    storage,
		amqpClient: amqpClient,
		logger:     applog.NewStructuredLogger(applog.New(applog.Config{Component: applog.ComponentIngest})),
	}
}

// IngestBatch saves a batch of raw transactions locally and publishes a batch
// notification for the enrichment worker.
func (s *IngestService) IngestBatch(ctx context.Context, transactions []core.RawTransaction) (string, int, error) {
	if len(transactions) == 0 {
		return "", 0, fmt.Errorf("empty transaction batch")
	}

	batchID := uuid.NewString()

	// Save to SQLite first (fast, reliable)
	count, err := s.storage.InsertRawBatch(ctx, batchID, transactions)
	if err != nil {
		return "", 0, fmt.Errorf("save batch: %w", err)
	}

	s.logger.LogBatchIngested(ctx, batchID, count)

	// Publish async notification (non-blocking)
	if err := s.publishBatchMessage(ctx, batchID, count); err != nil {
		s.logger.LogError(ctx, "Failed to publish batch message", err,
			applog.ComponentIngest, applog.OpIngest,
			applog.NewFields().WithBatch(batchID, count))
		// Don't fail the request - batch is saved locally
	}

	return batchID, count, nil
}

func (s *IngestService) publishBatchMessage(ctx context.Context, batchID string, count int) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping batch message")
		return nil
	}

	return s.amqpClient.PublishBatchIngested(ctx, batchID, count)
}

// Close closes both storage and AMQP connections
func (s *IngestService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ingest service: %v", errs)
	}

	return nil
}
