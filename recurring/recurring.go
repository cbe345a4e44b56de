package recurring

import (
	"errors"
	"time"

	"github.com/billbatista/caderninho/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringExpense is a monthly obligation template. Amount is an unsigned
// magnitude; Type signs it at materialization time.
type RecurringExpense struct {
	ID          uuid.UUID       `json:"id,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        ledger.Type     `json:"type,omitempty"`
	// Day is the due day of month, 1-31. Months without that day clamp
	// the materialized date to their last day.
	Day        int        `json:"day,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	AccountID  uuid.UUID  `json:"account_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
}

var (
	ErrEmptyDescription = errors.New("description can't be empty")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidDay       = errors.New("day must be between 1 and 31")
	ErrMissingAccount   = errors.New("account is required")
	ErrNotFound         = errors.New("recurring expense not found")
)

func New(description string, amount decimal.Decimal, txType ledger.Type, day int, categoryID *uuid.UUID, accountID uuid.UUID) (RecurringExpense, error) {
	if description == "" {
		return RecurringExpense{}, ErrEmptyDescription
	}
	if !amount.IsPositive() {
		return RecurringExpense{}, ErrInvalidAmount
	}
	if day < 1 || day > 31 {
		return RecurringExpense{}, ErrInvalidDay
	}
	if accountID == uuid.Nil {
		return RecurringExpense{}, ErrMissingAccount
	}

	return RecurringExpense{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount.Abs(),
		Type:        txType,
		Day:         day,
		CategoryID:  categoryID,
		AccountID:   accountID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
