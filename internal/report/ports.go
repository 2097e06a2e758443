package report

import (
	"context"

	"insight/internal/core"
)

// Monthly is an insights report for one calendar month.
type Monthly struct {
	Year      int
	Month     int
	Summary   core.Summary
	Spending  []core.SpendingCategory
	Recurring []core.RecurringExpense
}

// Ports for outbound adapters.
type (
	// Writer persists a monthly insights report to a report sink.
	Writer interface {
		// WriteMonthly writes the report and returns a sink-specific reference.
		WriteMonthly(ctx context.Context, r Monthly) (ref string, err error)
	}
)
