package ledger

import (
	"github.com/shopspring/decimal"
)

// MonthBucket accumulates a category's expense magnitudes (debt) and income
// (paid) for one calendar month.
type MonthBucket struct {
	Month string          `json:"month"` // "2006-01"
	Debt  decimal.Decimal `json:"debt"`
	Paid  decimal.Decimal `json:"paid"`
}

// Balance is the month's outstanding debt.
func (b MonthBucket) Balance() decimal.Decimal {
	return b.Debt.Sub(b.Paid)
}

type CategoryStats struct {
	TotalSpent decimal.Decimal `json:"total_spent"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	// TotalAccumulated is the category's outstanding debt, floored at
	// zero: an over-paid category never reports negative debt.
	TotalAccumulated decimal.Decimal `json:"total_accumulated"`
	Months           []MonthBucket   `json:"months"`
}

// ComputeCategoryStats folds a category's rows, ordered by date, into
// per-month debt/paid buckets and the running totals.
func ComputeCategoryStats(rows []Transaction) CategoryStats {
	var stats CategoryStats
	index := make(map[string]int)

	for _, row := range rows {
		key := row.Date.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(stats.Months)
			index[key] = i
			stats.Months = append(stats.Months, MonthBucket{Month: key})
		}

		if row.Amount.IsNegative() {
			cost := row.Amount.Abs()
			stats.TotalSpent = stats.TotalSpent.Add(cost)
			stats.Months[i].Debt = stats.Months[i].Debt.Add(cost)
		} else {
			stats.TotalPaid = stats.TotalPaid.Add(row.Amount)
			stats.Months[i].Paid = stats.Months[i].Paid.Add(row.Amount)
		}
	}

	stats.TotalAccumulated = stats.TotalSpent.Sub(stats.TotalPaid)
	if stats.TotalAccumulated.IsNegative() {
		stats.TotalAccumulated = decimal.Zero
	}

	return stats
}
