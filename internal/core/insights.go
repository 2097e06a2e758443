package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TimeWindow is a named relative date range used to scope insight queries.
type TimeWindow string

const (
	WindowThisMonth   TimeWindow = "thisMonth"
	WindowLastMonth   TimeWindow = "lastMonth"
	WindowLast3Months TimeWindow = "last3Months"
	WindowThisYear    TimeWindow = "thisYear"
	WindowAll         TimeWindow = "all"
)

var ErrUnknownWindow = errors.New("unknown time window")

// ParseWindow maps a query-string value onto a TimeWindow. An empty value
// defaults to WindowAll.
func ParseWindow(s string) (TimeWindow, error) {
	switch TimeWindow(s) {
	case WindowThisMonth, WindowLastMonth, WindowLast3Months, WindowThisYear, WindowAll:
		return TimeWindow(s), nil
	case "":
		return WindowAll, nil
	}
	return "", ErrUnknownWindow
}

// SpendingCategory is one row of a spending-by-category aggregation. It is
// recomputed per query and never stored.
type SpendingCategory struct {
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	Count           int             `json:"count"`
	Percentage      float64         `json:"percentage"`
	Icon            string          `json:"icon"`
	Color           string          `json:"color"`
	SuggestedBudget decimal.Decimal `json:"suggestedBudget"`

	// Overlay fields, populated only when a saved Budget matches.
	BudgetLimit *decimal.Decimal `json:"budgetLimit,omitempty"`
	BudgetSpent *decimal.Decimal `json:"budgetSpent,omitempty"`
}

// RecurringContribution is one transaction backing a recurring expense.
type RecurringContribution struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// RecurringExpense is a merchant whose monthly spend is stable across two or
// more calendar months. Amount is the average monthly total, not the average
// per transaction, and Frequency counts distinct months, not transactions.
type RecurringExpense struct {
	Merchant     string                  `json:"merchant"`
	Category     string                  `json:"category"`
	Icon         string                  `json:"icon"`
	Color        string                  `json:"color"`
	Amount       decimal.Decimal         `json:"amount"`
	Frequency    int                     `json:"frequency"`
	NextDate     time.Time               `json:"nextDate"`
	Transactions []RecurringContribution `json:"transactions"`
}

// Summary is the income/expense/net total over a transaction set.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}
