package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer rows are tagged by description prefix. Rows written by current
// code also share a transfer_group id; the prefixes remain the fallback for
// rows inserted before the group id existed.
const (
	TransferOutPrefix = "Transferência enviada"
	TransferInPrefix  = "Transferência recebida"
)

// TwinWindow bounds the date distance of a legacy twin lookup.
const TwinWindow = 2 * time.Second

type TransferInput struct {
	Amount      decimal.Decimal
	FromAccount uuid.UUID
	ToAccount   uuid.UUID
	Date        time.Time
	Description string
}

// BuildTransferPair produces the two rows of an inter-account transfer: a
// paid expense on the source and a paid income on the destination, linked by
// a shared transfer group id. Transfer rows carry no category, so they never
// enter reimbursement aggregates. Callers insert them as one batch.
func BuildTransferPair(in TransferInput) ([]Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.FromAccount == uuid.Nil || in.ToAccount == uuid.Nil {
		return nil, ErrMissingAccount
	}
	if in.FromAccount == in.ToAccount {
		return nil, ErrSameAccount
	}

	group := uuid.New()
	outbound := Transaction{
		ID:            uuid.New(),
		Description:   tagTransfer(TransferOutPrefix, in.Description),
		Amount:        in.Amount.Neg(),
		Type:          TypeExpense,
		Date:          in.Date,
		IsPaid:        true,
		TransferGroup: &group,
		AccountID:     in.FromAccount,
	}
	inbound := Transaction{
		ID:            uuid.New(),
		Description:   tagTransfer(TransferInPrefix, in.Description),
		Amount:        in.Amount,
		Type:          TypeIncome,
		Date:          in.Date,
		IsPaid:        true,
		TransferGroup: &group,
		AccountID:     in.ToAccount,
	}

	return []Transaction{outbound, inbound}, nil
}

func tagTransfer(prefix, description string) string {
	if description == "" {
		return prefix
	}
	return prefix + ": " + description
}

// IsTransfer reports whether the row belongs to a transfer pair, by group id
// or by legacy description tag.
func (t Transaction) IsTransfer() bool {
	if t.TransferGroup != nil {
		return true
	}
	return strings.HasPrefix(t.Description, TransferOutPrefix) ||
		strings.HasPrefix(t.Description, TransferInPrefix)
}

// TwinPrefix is the tag the paired row of a legacy transfer carries.
func (t Transaction) TwinPrefix() string {
	if strings.HasPrefix(t.Description, TransferOutPrefix) {
		return TransferInPrefix
	}
	return TransferOutPrefix
}
