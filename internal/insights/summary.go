package insights

import (
	"insight/internal/core"

	"github.com/shopspring/decimal"
)

// CalculateIncomeExpenses sums income against expenses over a transaction
// set. Income collects positive credits, expenses the absolute value of
// negative debits; zero-amount records land in neither bucket. Net is income
// minus expenses.
func CalculateIncomeExpenses(transactions []core.EnrichedTransaction) core.Summary {
	income := decimal.Zero
	expenses := decimal.Zero

	for _, tx := range transactions {
		switch {
		case tx.IsCredit && tx.Amount.IsPositive():
			income = income.Add(tx.Amount)
		case tx.IsExpense():
			expenses = expenses.Add(tx.Amount.Abs())
		}
	}

	return core.Summary{
		Income:   income,
		Expenses: expenses,
		Net:      income.Sub(expenses),
	}
}
