package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxInstallments = 48

// InstallmentInput describes one purchase, possibly spread over consecutive
// months. Amount is an unsigned magnitude; Type decides the sign.
type InstallmentInput struct {
	Description string
	Amount      decimal.Decimal
	Type        Type
	StartDate   time.Time
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	IsPaid      bool
	Count       int
}

// ExpandInstallments turns one purchase into its dated rows. A count of 1
// yields a single plain row. For larger counts all rows share one
// installment id, descriptions get a "(k/N)" suffix, and only the first row
// inherits the caller's paid flag; later rows start out planned.
func ExpandInstallments(in InstallmentInput) ([]Transaction, error) {
	if in.Description == "" {
		return nil, ErrEmptyDescription
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !validType(in.Type) {
		return nil, ErrInvalidType
	}
	if in.Count < 1 || in.Count > maxInstallments {
		return nil, ErrInvalidInstallments
	}
	if in.AccountID == uuid.Nil {
		return nil, ErrMissingAccount
	}

	amount := Sign(in.Amount, in.Type)

	if in.Count == 1 {
		return []Transaction{{
			ID:          uuid.New(),
			Description: in.Description,
			Amount:      amount,
			Type:        in.Type,
			Date:        in.StartDate,
			IsPaid:      in.IsPaid,
			AccountID:   in.AccountID,
			CategoryID:  in.CategoryID,
		}}, nil
	}

	groupID := uuid.New()
	rows := make([]Transaction, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		label := fmt.Sprintf("%d/%d", i+1, in.Count)
		rows = append(rows, Transaction{
			ID:               uuid.New(),
			Description:      fmt.Sprintf("%s (%s)", in.Description, label),
			Amount:           amount,
			Type:             in.Type,
			Date:             AddMonthsClamped(in.StartDate, i),
			IsPaid:           i == 0 && in.IsPaid,
			InstallmentID:    &groupID,
			InstallmentLabel: label,
			AccountID:        in.AccountID,
			CategoryID:       in.CategoryID,
		})
	}

	return rows, nil
}

// AddMonthsClamped advances a date by whole calendar months. When the target
// month has fewer days than the start day the result clamps to the target
// month's last day instead of rolling over (Jan-31 + 1 month is Feb-28/29,
// never Mar-2).
func AddMonthsClamped(d time.Time, months int) time.Time {
	year, month, day := d.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, d.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	hour, min, sec := d.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, d.Nanosecond(), d.Location())
}

// ClampedDayOfMonth places a due day inside a given month, clamping days the
// month doesn't have to its last day (31 in April becomes Apr-30).
func ClampedDayOfMonth(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
