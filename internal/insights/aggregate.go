package insights

import (
	"sort"

	"insight/internal/core"

	"github.com/shopspring/decimal"
)

// suggestedBudgetMarkup is the markup applied to actual spend when proposing
// a budget for a category.
var suggestedBudgetMarkup = decimal.NewFromFloat(1.2)

// CalculateSpendingByCategory groups expense transactions by category and
// returns per-category totals, counts, percentages of total spend and a
// suggested budget, ordered by amount descending.
//
// Only true expenses participate (debit sign, negative amount); credits and
// zero-amount records are ignored. With zero total spend every percentage is
// zero rather than NaN.
func CalculateSpendingByCategory(transactions []core.EnrichedTransaction) []core.SpendingCategory {
	type group struct {
		amount decimal.Decimal
		count  int
		icon   string
		color  string
	}

	groups := make(map[string]*group)
	total := decimal.Zero

	for _, tx := range transactions {
		if !tx.IsExpense() {
			continue
		}
		abs := tx.Amount.Abs()
		g, ok := groups[tx.Category]
		if !ok {
			g = &group{amount: decimal.Zero}
			groups[tx.Category] = g
		}
		g.amount = g.amount.Add(abs)
		g.count++
		// All contributors to one category share the same icon/color by
		// construction, so last write wins is stable.
		g.icon = tx.CategoryIcon
		g.color = tx.CategoryColor
		total = total.Add(abs)
	}

	result := make([]core.SpendingCategory, 0, len(groups))
	for name, g := range groups {
		pct := 0.0
		if total.IsPositive() {
			pct, _ = g.amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		result = append(result, core.SpendingCategory{
			Category:        name,
			Amount:          g.amount,
			Count:           g.count,
			Percentage:      pct,
			Icon:            g.icon,
			Color:           g.color,
			SuggestedBudget: g.amount.Mul(suggestedBudgetMarkup).Ceil(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Amount.Equal(result[j].Amount) {
			return result[i].Category < result[j].Category
		}
		return result[i].Amount.GreaterThan(result[j].Amount)
	})
	return result
}

// OverlayBudgets merges saved budgets (keyed by category name) onto a
// spending aggregation. Budgets are read-only: the overlay adds limit and
// spent figures without touching the computed amount or percentage.
func OverlayBudgets(categories []core.SpendingCategory, budgets []core.Budget) []core.SpendingCategory {
	byCategory := make(map[string]core.Budget, len(budgets))
	for _, b := range budgets {
		byCategory[b.Category] = b
	}

	out := make([]core.SpendingCategory, len(categories))
	for i, c := range categories {
		if b, ok := byCategory[c.Category]; ok {
			limit := b.Limit
			spent := b.Spent
			c.BudgetLimit = &limit
			c.BudgetSpent = &spent
		}
		out[i] = c
	}
	return out
}
