package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UpdateInput carries the edited fields of one row. Amount is an unsigned
// magnitude; Type decides the sign.
type UpdateInput struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	Type        Type
	Date        time.Time
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	IsPaid      bool
}

func (in UpdateInput) validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !validType(in.Type) {
		return ErrInvalidType
	}
	if in.AccountID == uuid.Nil {
		return ErrMissingAccount
	}
	return nil
}

// groupUpdates applies an edit to a whole installment group. The edited row
// takes every field from the input; its siblings take the shared fields
// (amount, type, account, category) and the re-suffixed base description,
// keeping their own date, paid flag and label.
func groupUpdates(in UpdateInput, edited Transaction, siblings []Transaction) []Transaction {
	amount := Sign(in.Amount, in.Type)
	base := baseDescription(in.Description, edited.InstallmentLabel)

	updated := make([]Transaction, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.ID == in.ID {
			sibling.Description = in.Description
			sibling.Date = in.Date
			sibling.IsPaid = in.IsPaid
		} else if sibling.InstallmentLabel != "" {
			sibling.Description = fmt.Sprintf("%s (%s)", base, sibling.InstallmentLabel)
		} else {
			sibling.Description = base
		}
		// A row moved out of its category, or turned into income,
		// leaves the reach of the reconciliation that set its
		// reimbursed mark, so the mark is dropped.
		if in.Type != TypeExpense || !sameCategory(sibling.CategoryID, in.CategoryID) {
			sibling.IsReimbursed = false
		}
		sibling.Amount = amount
		sibling.Type = in.Type
		sibling.AccountID = in.AccountID
		sibling.CategoryID = in.CategoryID
		updated = append(updated, sibling)
	}

	return updated
}

// baseDescription strips the "(k/n)" suffix off an edited description so the
// sibling rows can be re-suffixed with their own labels. If the user removed
// the suffix by hand the description is already the base.
func baseDescription(description, label string) string {
	if label == "" {
		return description
	}
	return strings.Replace(description, fmt.Sprintf(" (%s)", label), "", 1)
}
