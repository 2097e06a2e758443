package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"insight/internal/core"
	"insight/internal/insights"
	"insight/internal/report"
)

// TransactionSource supplies stored raw transactions.
type TransactionSource interface {
	ListRawTransactions(ctx context.Context) ([]core.RawTransaction, error)
}

// BudgetSource supplies saved category budgets and savings goals. Both are
// read-only inputs here.
type BudgetSource interface {
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	ListGoals(ctx context.Context) ([]core.Goal, error)
}

// InsightsService computes spending, recurring and summary views over the
// stored transaction history.
type InsightsService struct {
	transactions TransactionSource
	budgets      BudgetSource
	enricher     *insights.Enricher
	recurring    insights.RecurringOptions
	clock        insights.Clock
}

func NewInsightsService(transactions TransactionSource, budgets BudgetSource, enricher *insights.Enricher, recurring insights.RecurringOptions) *InsightsService {
	return &InsightsService{
		transactions: transactions,
		budgets:      budgets,
		enricher:     enricher,
		recurring:    recurring,
		clock:        time.Now,
	}
}

// WithClock overrides the clock used for window boundaries.
func (s *InsightsService) WithClock(clock insights.Clock) *InsightsService {
	s.clock = clock
	return s
}

// Transactions returns the enriched transaction history for a window, newest
// stored order preserved.
func (s *InsightsService) Transactions(ctx context.Context, window core.TimeWindow) ([]core.EnrichedTransaction, error) {
	return s.enrichWindow(ctx, window)
}

// Spending aggregates expenses by category for a window. Saved budgets are
// overlaid onto matching categories.
func (s *InsightsService) Spending(ctx context.Context, window core.TimeWindow) ([]core.SpendingCategory, error) {
	enriched, err := s.enrichWindow(ctx, window)
	if err != nil {
		return nil, err
	}

	spending := insights.CalculateSpendingByCategory(enriched)

	if s.budgets != nil {
		budgets, err := s.budgets.ListBudgets(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load budgets, returning spending without overlay",
				"error", err)
		} else {
			spending = insights.OverlayBudgets(spending, budgets)
		}
	}

	return spending, nil
}

// Recurring detects recurring expenses over a window.
func (s *InsightsService) Recurring(ctx context.Context, window core.TimeWindow) ([]core.RecurringExpense, error) {
	enriched, err := s.enrichWindow(ctx, window)
	if err != nil {
		return nil, err
	}
	return insights.DetectRecurringExpenses(enriched, s.recurring), nil
}

// Summarize computes income, expenses and net over a window.
func (s *InsightsService) Summarize(ctx context.Context, window core.TimeWindow) (core.Summary, error) {
	enriched, err := s.enrichWindow(ctx, window)
	if err != nil {
		return core.Summary{}, err
	}
	return insights.CalculateIncomeExpenses(enriched), nil
}

// Goals returns saved savings goals with their completion ratio.
func (s *InsightsService) Goals(ctx context.Context) ([]core.GoalProgress, error) {
	if s.budgets == nil {
		return nil, nil
	}

	goals, err := s.budgets.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return insights.SummarizeGoals(goals), nil
}

// MonthlyReport assembles the full insights report for one calendar month.
func (s *InsightsService) MonthlyReport(ctx context.Context, year, month int) (report.Monthly, error) {
	if month < 1 || month > 12 {
		return report.Monthly{}, fmt.Errorf("invalid month: %d", month)
	}

	enriched, err := s.enrichWindow(ctx, core.WindowAll)
	if err != nil {
		return report.Monthly{}, err
	}

	var scoped []core.EnrichedTransaction
	for _, tx := range enriched {
		if tx.Date.Year() == year && int(tx.Date.Month()) == month {
			scoped = append(scoped, tx)
		}
	}

	return report.Monthly{
		Year:      year,
		Month:     month,
		Summary:   insights.CalculateIncomeExpenses(scoped),
		Spending:  insights.CalculateSpendingByCategory(scoped),
		Recurring: insights.DetectRecurringExpenses(scoped, s.recurring),
	}, nil
}

func (s *InsightsService) enrichWindow(ctx context.Context, window core.TimeWindow) ([]core.EnrichedTransaction, error) {
	raw, err := s.transactions.ListRawTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	scoped := insights.FilterByWindow(raw, window, s.clock)
	return s.enricher.EnrichAll(scoped), nil
}
