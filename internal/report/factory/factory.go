// Package factory constructs report writers from configuration, so the
// worker binary stays agnostic of the concrete export backend.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"insight/internal/report"
	gsheet "insight/internal/report/google"
	"insight/internal/report/memory"
)

// BackendType identifies a report export backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SheetsBackend BackendType = "sheets"
)

// IsValid reports whether the backend type is known
func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, SheetsBackend:
		return true
	}
	return false
}

// Config holds configuration for writer creation
type Config struct {
	Type BackendType

	// Google Sheets specific
	SpreadsheetID string
	SheetName     string
	CredFile      string
	CredJSON      string
}

// CleanupFunc releases resources held by a writer
type CleanupFunc func() error

// Result contains the writer instance and optional cleanup function
type Result struct {
	Writer  report.Writer
	Cleanup CleanupFunc
}

// NewWriter creates a report writer for the configured backend
func NewWriter(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid report backend type: %s", config.Type)
	}

	switch config.Type {
	case SheetsBackend:
		cli, err := gsheet.New(ctx, config.SpreadsheetID, config.SheetName, config.CredFile, config.CredJSON)
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets writer: %w", err)
		}
		slog.Info("Initialized Google Sheets report writer", "spreadsheet_id", config.SpreadsheetID)
		return &Result{Writer: cli}, nil

	default:
		store := memory.New()
		slog.Info("Initialized memory report writer")
		return &Result{Writer: store}, nil
	}
}
