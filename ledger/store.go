package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the transactional row storage the engine runs against. Batch
// operations commit atomically: all rows or none. Ordered listings sort by
// (date, created_at) so insertion order breaks date ties.
type Store interface {
	InsertBatch(ctx context.Context, rows []Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateBatch(ctx context.Context, rows []Transaction) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
	DeleteGroup(ctx context.Context, installmentID uuid.UUID) error

	ListGroup(ctx context.Context, installmentID uuid.UUID) ([]Transaction, error)
	ListTransferGroup(ctx context.Context, group uuid.UUID) ([]Transaction, error)
	// FindTwin locates the paired row of a pre-group transfer: opposite
	// tag, negated amount, date within two seconds. Closest created_at
	// wins when several rows qualify.
	FindTwin(ctx context.Context, of Transaction) (*Transaction, error)

	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Transaction, error)
	ListFuture(ctx context.Context, after time.Time) ([]Transaction, error)

	// SumIncome totals income rows of a category; SumReimbursed totals the
	// magnitudes of its currently reimbursed expense rows.
	SumIncome(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error)
	SumReimbursed(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error)
	// ListUnreimbursed orders oldest first, ListReimbursed newest first.
	ListUnreimbursed(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error)
	ListReimbursed(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error)
	SetReimbursed(ctx context.Context, ids []uuid.UUID, reimbursed bool) error
}
