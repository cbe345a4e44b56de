package account

import (
	"testing"
	"time"

	"github.com/billbatista/caderninho/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func paidExpense(date time.Time, magnitude string) ledger.Transaction {
	return ledger.Transaction{
		ID:        uuid.New(),
		Amount:    decimal.RequireFromString(magnitude).Neg(),
		Type:      ledger.TypeExpense,
		Date:      date,
		IsPaid:    true,
		AccountID: uuid.New(),
	}
}

func TestBalanceOf(t *testing.T) {
	asOf := day(2025, time.June, 30)
	base := decimal.RequireFromString("500")

	planned := paidExpense(day(2025, time.June, 5), "70")
	planned.IsPaid = false
	future := paidExpense(day(2025, time.July, 2), "40")

	tests := []struct {
		name string
		rows []ledger.Transaction
		want string
	}{
		{"no rows", nil, "500"},
		{"paid expense reduces", []ledger.Transaction{paidExpense(day(2025, time.June, 5), "100")}, "400"},
		{"planned row ignored", []ledger.Transaction{planned}, "500"},
		{"future row ignored", []ledger.Transaction{future}, "500"},
		{
			"income and expense net out",
			[]ledger.Transaction{
				paidExpense(day(2025, time.June, 5), "100"),
				{Amount: decimal.RequireFromString("30"), Type: ledger.TypeIncome, Date: day(2025, time.June, 10), IsPaid: true},
			},
			"430",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BalanceOf(base, tc.rows, asOf).String())
		})
	}
}

func TestBalanceOfReimbursementRoundTrip(t *testing.T) {
	asOf := day(2025, time.June, 30)
	base := decimal.RequireFromString("500")
	expense := paidExpense(day(2025, time.June, 5), "100")

	before := BalanceOf(base, []ledger.Transaction{expense}, asOf)
	require.Equal(t, "400", before.String())

	// Settling the expense by reimbursement gives its cost back to the
	// paying account.
	expense.IsReimbursed = true
	settled := BalanceOf(base, []ledger.Transaction{expense}, asOf)
	assert.Equal(t, "500", settled.String())
	assert.Equal(t, "100", settled.Sub(before).String())

	// Unsettling restores the original balance exactly.
	expense.IsReimbursed = false
	assert.True(t, BalanceOf(base, []ledger.Transaction{expense}, asOf).Equal(before))
}
