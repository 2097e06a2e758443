package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"insight/internal/core"
	"insight/internal/insights"
)

type fakeTransactionSource struct {
	transactions []core.RawTransaction
	err          error
}

func (f *fakeTransactionSource) ListRawTransactions(_ context.Context) ([]core.RawTransaction, error) {
	return f.transactions, f.err
}

type fakeBudgetSource struct {
	budgets []core.Budget
	goals   []core.Goal
	err     error
}

func (f *fakeBudgetSource) ListBudgets(_ context.Context) ([]core.Budget, error) {
	return f.budgets, f.err
}

func (f *fakeBudgetSource) ListGoals(_ context.Context) ([]core.Goal, error) {
	return f.goals, f.err
}

func rawExpense(id, description, date string, amount float64) core.RawTransaction {
	return core.RawTransaction{
		ID:              id,
		Description:     description,
		Amount:          core.FlexAmount{Value: decimal.NewFromFloat(amount), Valid: true},
		BookingDateTime: date,
	}
}

func newTestService(source TransactionSource, budgets BudgetSource) *InsightsService {
	svc := NewInsightsService(source, budgets, insights.NewEnricher(), insights.DefaultRecurringOptions())
	return svc.WithClock(func() time.Time {
		return time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	})
}

func TestInsightsService_Spending(t *testing.T) {
	source := &fakeTransactionSource{transactions: []core.RawTransaction{
		rawExpense("tx-1", "TESCO STORES", "2024-02-05", -40),
		rawExpense("tx-2", "SAINSBURYS LOCAL", "2024-02-12", -25),
		rawExpense("tx-3", "NETFLIX.COM", "2024-02-14", -9.99),
		rawExpense("tx-4", "SALARY FEBRUARY", "2024-02-01", 2500),
	}}
	budgets := &fakeBudgetSource{budgets: []core.Budget{
		{Category: "Groceries", Limit: decimal.NewFromFloat(200), Spent: decimal.NewFromFloat(65)},
	}}

	spending, err := newTestService(source, budgets).Spending(context.Background(), core.WindowThisMonth)
	if err != nil {
		t.Fatalf("Spending() error = %v", err)
	}
	if len(spending) != 2 {
		t.Fatalf("Spending() returned %d categories, want 2", len(spending))
	}
	if spending[0].Category != "Groceries" {
		t.Errorf("largest category = %s, want Groceries", spending[0].Category)
	}
	if !spending[0].Amount.Equal(decimal.NewFromFloat(65)) {
		t.Errorf("Groceries amount = %s, want 65", spending[0].Amount)
	}
	if spending[0].BudgetLimit == nil || !spending[0].BudgetLimit.Equal(decimal.NewFromFloat(200)) {
		t.Errorf("budget overlay missing on Groceries: %+v", spending[0])
	}
	if spending[1].BudgetLimit != nil {
		t.Errorf("unexpected budget overlay on %s", spending[1].Category)
	}
}

func TestInsightsService_Spending_BudgetErrorIsNotFatal(t *testing.T) {
	source := &fakeTransactionSource{transactions: []core.RawTransaction{
		rawExpense("tx-1", "TESCO STORES", "2024-02-05", -40),
	}}
	budgets := &fakeBudgetSource{err: errors.New("storage down")}

	spending, err := newTestService(source, budgets).Spending(context.Background(), core.WindowAll)
	if err != nil {
		t.Fatalf("Spending() error = %v, want nil when budget source fails", err)
	}
	if len(spending) != 1 {
		t.Errorf("Spending() returned %d categories, want 1", len(spending))
	}
}

func TestInsightsService_Recurring(t *testing.T) {
	source := &fakeTransactionSource{transactions: []core.RawTransaction{
		rawExpense("tx-1", "NETFLIX.COM", "2024-01-14", -9.99),
		rawExpense("tx-2", "NETFLIX.COM", "2024-02-14", -9.99),
		rawExpense("tx-3", "ONE OFF SHOP", "2024-02-10", -55),
	}}

	recurring, err := newTestService(source, nil).Recurring(context.Background(), core.WindowAll)
	if err != nil {
		t.Fatalf("Recurring() error = %v", err)
	}
	if len(recurring) != 1 {
		t.Fatalf("Recurring() returned %d merchants, want 1", len(recurring))
	}
	if recurring[0].Frequency != 2 {
		t.Errorf("frequency = %d, want 2", recurring[0].Frequency)
	}
}

func TestInsightsService_Summarize(t *testing.T) {
	source := &fakeTransactionSource{transactions: []core.RawTransaction{
		rawExpense("tx-1", "SALARY", "2024-02-01", 2500),
		rawExpense("tx-2", "RENT PAYMENT", "2024-02-03", -900),
	}}

	summary, err := newTestService(source, nil).Summarize(context.Background(), core.WindowThisMonth)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.Income.Equal(decimal.NewFromFloat(2500)) {
		t.Errorf("income = %s, want 2500", summary.Income)
	}
	if !summary.Net.Equal(decimal.NewFromFloat(1600)) {
		t.Errorf("net = %s, want 1600", summary.Net)
	}
}

func TestInsightsService_MonthlyReport(t *testing.T) {
	source := &fakeTransactionSource{transactions: []core.RawTransaction{
		rawExpense("tx-1", "SALARY", "2024-01-31", 2500),
		rawExpense("tx-2", "TESCO STORES", "2024-01-15", -40),
		rawExpense("tx-3", "TESCO STORES", "2024-02-15", -42),
	}}

	svc := newTestService(source, nil)
	monthly, err := svc.MonthlyReport(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("MonthlyReport() error = %v", err)
	}
	if monthly.Year != 2024 || monthly.Month != 1 {
		t.Errorf("period = %d-%d, want 2024-1", monthly.Year, monthly.Month)
	}
	if !monthly.Summary.Income.Equal(decimal.NewFromFloat(2500)) {
		t.Errorf("income = %s, want 2500", monthly.Summary.Income)
	}
	// February transaction must not leak into the January report.
	if !monthly.Summary.Expenses.Equal(decimal.NewFromFloat(40)) {
		t.Errorf("expenses = %s, want 40", monthly.Summary.Expenses)
	}

	if _, err := svc.MonthlyReport(context.Background(), 2024, 13); err == nil {
		t.Error("MonthlyReport() with month 13: error = nil, want error")
	}
}

func TestInsightsService_SourceError(t *testing.T) {
	source := &fakeTransactionSource{err: errors.New("db locked")}

	if _, err := newTestService(source, nil).Summarize(context.Background(), core.WindowAll); err == nil {
		t.Error("Summarize() with failing source: error = nil, want error")
	}
}

func TestInsightsService_Goals(t *testing.T) {
	budgets := &fakeBudgetSource{goals: []core.Goal{
		{Name: "Holiday", Target: decimal.NewFromInt(1000), Saved: decimal.NewFromInt(250)},
	}}

	goals, err := newTestService(&fakeTransactionSource{}, budgets).Goals(context.Background())
	if err != nil {
		t.Fatalf("Goals() error = %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("Goals() returned %d goals, want 1", len(goals))
	}
	if goals[0].Name != "Holiday" || goals[0].Progress != 0.25 {
		t.Errorf("Goals()[0] = %+v, want Holiday at 0.25", goals[0])
	}
}

func TestInsightsService_Goals_SourceError(t *testing.T) {
	budgets := &fakeBudgetSource{err: errors.New("storage down")}

	if _, err := newTestService(&fakeTransactionSource{}, budgets).Goals(context.Background()); err == nil {
		t.Error("Goals() with failing source: error = nil, want error")
	}
}

func TestInsightsService_Goals_NoSource(t *testing.T) {
	goals, err := newTestService(&fakeTransactionSource{}, nil).Goals(context.Background())
	if err != nil {
		t.Fatalf("Goals() error = %v", err)
	}
	if len(goals) != 0 {
		t.Errorf("Goals() without a source = %v, want empty", goals)
	}
}
