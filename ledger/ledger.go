package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeExpense Type = "expense"
	TypeIncome  Type = "income"
)

// Transaction is one signed ledger row. Amount is negative for expenses and
// positive for income; the sign always agrees with Type.
type Transaction struct {
	ID          uuid.UUID       `json:"id,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type,omitempty"`
	Date        time.Time       `json:"date"`
	IsPaid      bool            `json:"is_paid"`
	// IsReimbursed marks an expense in a reimbursable category as settled
	// by reimbursement income. Only the reconciler mutates it.
	IsReimbursed     bool       `json:"is_reimbursed"`
	InstallmentID    *uuid.UUID `json:"installment_id,omitempty"`
	InstallmentLabel string     `json:"installment_label,omitempty"`
	TransferGroup    *uuid.UUID `json:"transfer_group,omitempty"`
	MaterializedFrom *uuid.UUID `json:"materialized_from,omitempty"`
	AccountID        uuid.UUID  `json:"account_id,omitempty"`
	CategoryID       *uuid.UUID `json:"category_id,omitempty"`
	// CreatedAt is the insertion-order tie-break for rows sharing a date.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Cost is the unsigned magnitude of the row.
func (t Transaction) Cost() decimal.Decimal {
	return t.Amount.Abs()
}

var (
	ErrEmptyDescription    = errors.New("description can't be empty")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidType         = errors.New("type must be expense or income")
	ErrInvalidInstallments = errors.New("installments must be between 1 and 48")
	ErrMissingAccount      = errors.New("account is required")
	ErrSameAccount         = errors.New("transfer accounts must differ")
	ErrNotFound            = errors.New("transaction not found")
)

// epsilon is the currency-unit tolerance for every aggregate comparison.
var epsilon = decimal.NewFromFloat(0.01)

// Sign gives a magnitude the sign its type demands.
func Sign(magnitude decimal.Decimal, txType Type) decimal.Decimal {
	if txType == TypeExpense {
		return magnitude.Abs().Neg()
	}
	return magnitude.Abs()
}

func validType(txType Type) bool {
	return txType == TypeExpense || txType == TypeIncome
}
