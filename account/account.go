package account

import (
	"errors"
	"time"

	"github.com/billbatista/caderninho/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeChecking   Type = "checking"
	TypeWallet     Type = "wallet"
	TypeInvestment Type = "investment"
	TypeSavings    Type = "savings"
)

type Account struct {
	ID   uuid.UUID `json:"id,omitempty"`
	Name string    `json:"name,omitempty"`
	Type Type      `json:"type,omitempty"`
	// BaseBalance is the opening balance before any ledger rows. The
	// current balance is always re-derived from it plus paid rows; no
	// running balance is stored anywhere.
	BaseBalance decimal.Decimal `json:"base_balance"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
}

var (
	ErrEmptyName   = errors.New("name can't be empty")
	ErrInvalidType = errors.New("invalid account type")
	ErrNotFound    = errors.New("account not found")
)

func New(name string, accountType Type, baseBalance decimal.Decimal) (Account, error) {
	if name == "" {
		return Account{}, ErrEmptyName
	}
	switch accountType {
	case TypeChecking, TypeWallet, TypeInvestment, TypeSavings:
	default:
		return Account{}, ErrInvalidType
	}

	return Account{
		ID:          uuid.New(),
		Name:        name,
		Type:        accountType,
		BaseBalance: baseBalance,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// BalanceOf folds ledger rows into an account balance: base balance plus
// every paid, non-reimbursed row dated up to asOf. The SQL aggregate in
// BalanceAsOf computes exactly this rule.
func BalanceOf(base decimal.Decimal, rows []ledger.Transaction, asOf time.Time) decimal.Decimal {
	balance := base
	for _, row := range rows {
		if !row.IsPaid || row.IsReimbursed || row.Date.After(asOf) {
			continue
		}
		balance = balance.Add(row.Amount)
	}
	return balance
}

// MonthFlow is one month's income and expense totals for an account.
type MonthFlow struct {
	Month   time.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// YearStats aggregates one calendar year of an account's rows.
type YearStats struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpense  decimal.Decimal `json:"total_expense"`
	PeriodBalance decimal.Decimal `json:"period_balance"`
	Monthly       []MonthFlow     `json:"monthly"`
}
