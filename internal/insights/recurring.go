package insights

import (
	"sort"
	"time"

	"insight/internal/core"

	"github.com/shopspring/decimal"
)

// RecurringOptions tune the recurring-expense detector. The defaults are
// product-tuned values carried over as-is; treat them as knobs, not gospel.
type RecurringOptions struct {
	// MinTransactions is the minimum number of transactions a merchant needs
	// before it is considered at all.
	MinTransactions int
	// MaxVarianceRatio is the highest allowed ratio of mean absolute
	// deviation to mean of the per-month totals.
	MaxVarianceRatio float64
	// MaxResults caps the returned list.
	MaxResults int
}

// DefaultRecurringOptions returns the standard detector tuning.
func DefaultRecurringOptions() RecurringOptions {
	return RecurringOptions{
		MinTransactions:  2,
		MaxVarianceRatio: 0.2,
		MaxResults:       6,
	}
}

func (o RecurringOptions) withDefaults() RecurringOptions {
	d := DefaultRecurringOptions()
	if o.MinTransactions <= 0 {
		o.MinTransactions = d.MinTransactions
	}
	if o.MaxVarianceRatio <= 0 {
		o.MaxVarianceRatio = d.MaxVarianceRatio
	}
	if o.MaxResults <= 0 {
		o.MaxResults = d.MaxResults
	}
	return o
}

// DetectRecurringExpenses finds merchants whose monthly spend is stable
// across two or more distinct calendar months.
//
// Expenses are grouped by exact merchant string; there is no fuzzy matching,
// so merchant name drift between statements splits the group. Groups are
// bucketed by calendar month and flagged recurring when the
// mean absolute deviation of the per-month totals stays within
// MaxVarianceRatio of their mean. A merchant seen many times inside a single
// month is not recurring: the pattern must repeat across months.
func DetectRecurringExpenses(transactions []core.EnrichedTransaction, opts RecurringOptions) []core.RecurringExpense {
	opts = opts.withDefaults()

	byMerchant := make(map[string][]core.EnrichedTransaction)
	for _, tx := range transactions {
		if !tx.IsExpense() || tx.Merchant == "" {
			continue
		}
		byMerchant[tx.Merchant] = append(byMerchant[tx.Merchant], tx)
	}

	var detected []core.RecurringExpense
	for merchant, group := range byMerchant {
		if len(group) < opts.MinTransactions {
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

		monthTotals := make(map[string]decimal.Decimal)
		for _, tx := range group {
			bucket := tx.Date.Format("2006-01")
			monthTotals[bucket] = monthTotals[bucket].Add(tx.Amount.Abs())
		}
		if len(monthTotals) < 2 {
			continue
		}

		avg, ratio, ok := monthlyVariance(monthTotals)
		if !ok || ratio > opts.MaxVarianceRatio {
			continue
		}

		contributions := make([]core.RecurringContribution, len(group))
		for i, tx := range group {
			contributions[i] = core.RecurringContribution{ID: tx.ID, Date: tx.Date, Amount: tx.Amount}
		}
		first := group[0]
		last := group[len(group)-1]

		detected = append(detected, core.RecurringExpense{
			Merchant:     merchant,
			Category:     first.Category,
			Icon:         first.CategoryIcon,
			Color:        first.CategoryColor,
			Amount:       avg,
			Frequency:    len(monthTotals),
			NextDate:     last.Date.Add(30 * 24 * time.Hour),
			Transactions: contributions,
		})
	}

	sort.Slice(detected, func(i, j int) bool {
		if detected[i].Amount.Equal(detected[j].Amount) {
			return detected[i].Merchant < detected[j].Merchant
		}
		return detected[i].Amount.GreaterThan(detected[j].Amount)
	})
	if len(detected) > opts.MaxResults {
		detected = detected[:opts.MaxResults]
	}
	return detected
}

// monthlyVariance returns the mean of the per-month totals and the ratio of
// mean absolute deviation to that mean. A zero mean cannot produce a ratio
// and is reported as not ok (treated as non-recurring).
func monthlyVariance(monthTotals map[string]decimal.Decimal) (decimal.Decimal, float64, bool) {
	n := decimal.NewFromInt(int64(len(monthTotals)))

	sum := decimal.Zero
	for _, total := range monthTotals {
		sum = sum.Add(total)
	}
	avg := sum.Div(n)
	if !avg.IsPositive() {
		return decimal.Zero, 0, false
	}

	deviation := decimal.Zero
	for _, total := range monthTotals {
		deviation = deviation.Add(total.Sub(avg).Abs())
	}
	meanDeviation := deviation.Div(n)

	ratio, _ := meanDeviation.Div(avg).Float64()
	return avg, ratio, true
}
