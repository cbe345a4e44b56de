package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/billbatista/caderninho/category"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*category.Category, error)
}

// Service wires the engine pieces together: every mutation that can move a
// reimbursable category's aggregates is followed by a synchronous
// reconciliation of that category.
type Service struct {
	store      Store
	categories CategoryResolver
	reconciler *Reconciler
}

func NewService(store Store, categories CategoryResolver) *Service {
	return &Service{
		store:      store,
		categories: categories,
		reconciler: NewReconciler(store),
	}
}

// CreateTransaction expands a purchase into its installment rows and inserts
// them as one batch.
func (s *Service) CreateTransaction(ctx context.Context, in InstallmentInput) ([]Transaction, error) {
	rows, err := ExpandInstallments(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("inserting transactions: %w", err)
	}
	if _, err := s.reconcile(ctx, in.CategoryID); err != nil {
		return rows, err
	}
	return rows, nil
}

// UpdateTransaction applies an edit. Editing an installment row propagates
// the shared fields to every sibling in one atomic batch; their dates, paid
// flags and labels stay untouched.
func (s *Service) UpdateTransaction(ctx context.Context, in UpdateInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	original, err := s.store.GetByID(ctx, in.ID)
	if err != nil {
		return fmt.Errorf("loading transaction: %w", err)
	}
	if original == nil {
		return ErrNotFound
	}

	var updates []Transaction
	if original.InstallmentID == nil {
		row := *original
		row.Description = in.Description
		row.Amount = Sign(in.Amount, in.Type)
		row.Type = in.Type
		row.Date = in.Date
		row.IsPaid = in.IsPaid
		row.AccountID = in.AccountID
		row.CategoryID = in.CategoryID
		// A reimbursed mark only makes sense on an expense in its
		// original category; once the row leaves that domain the old
		// category's reconciliation can no longer reach it to clear
		// the mark, so it is dropped here.
		if in.Type != TypeExpense || !sameCategory(original.CategoryID, in.CategoryID) {
			row.IsReimbursed = false
		}
		updates = []Transaction{row}
	} else {
		siblings, err := s.store.ListGroup(ctx, *original.InstallmentID)
		if err != nil {
			return fmt.Errorf("loading installment group: %w", err)
		}
		updates = groupUpdates(in, *original, siblings)
	}

	if err := s.store.UpdateBatch(ctx, updates); err != nil {
		return fmt.Errorf("updating transactions: %w", err)
	}

	// The edit may have moved value out of one reimbursable category and
	// into another; both need their marks rebalanced.
	if _, err := s.reconcile(ctx, original.CategoryID); err != nil {
		return err
	}
	if !sameCategory(original.CategoryID, in.CategoryID) {
		if _, err := s.reconcile(ctx, in.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// TogglePaid flips a row between consolidated and planned. Paid state does
// not enter the reconciliation aggregates, so no reconciliation follows.
func (s *Service) TogglePaid(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading transaction: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	row.IsPaid = !row.IsPaid
	if err := s.store.UpdateBatch(ctx, []Transaction{*row}); err != nil {
		return nil, fmt.Errorf("updating transaction: %w", err)
	}
	return row, nil
}

// DeleteTransaction removes a row and whatever belongs with it: the transfer
// twin, or the whole installment group when wholeGroup is set. Deleting an
// already-missing row is a no-op. Removing rows from a reimbursable category
// re-reconciles it, since lost income can force newest-first unsettlement.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID, wholeGroup bool) error {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("loading transaction: %w", err)
	}
	if row == nil {
		return nil
	}

	switch {
	case row.TransferGroup != nil:
		pair, err := s.store.ListTransferGroup(ctx, *row.TransferGroup)
		if err != nil {
			return fmt.Errorf("loading transfer pair: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(pair))
		for _, p := range pair {
			ids = append(ids, p.ID)
		}
		if err := s.store.DeleteBatch(ctx, ids); err != nil {
			return fmt.Errorf("deleting transfer pair: %w", err)
		}
	case row.IsTransfer():
		// Pre-group transfer row: best-effort twin lookup by tag,
		// negated amount and the two-second date window.
		twin, err := s.store.FindTwin(ctx, *row)
		if err != nil {
			return fmt.Errorf("finding transfer twin: %w", err)
		}
		ids := []uuid.UUID{row.ID}
		if twin != nil {
			ids = append(ids, twin.ID)
		}
		if err := s.store.DeleteBatch(ctx, ids); err != nil {
			return fmt.Errorf("deleting transfer rows: %w", err)
		}
	case wholeGroup && row.InstallmentID != nil:
		if err := s.store.DeleteGroup(ctx, *row.InstallmentID); err != nil {
			return fmt.Errorf("deleting installment group: %w", err)
		}
	default:
		if err := s.store.DeleteBatch(ctx, []uuid.UUID{row.ID}); err != nil {
			return fmt.Errorf("deleting transaction: %w", err)
		}
	}

	_, err = s.reconcile(ctx, row.CategoryID)
	return err
}

// CreateTransfer inserts the paired rows of an inter-account transfer in one
// atomic batch.
func (s *Service) CreateTransfer(ctx context.Context, in TransferInput) ([]Transaction, error) {
	pair, err := BuildTransferPair(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertBatch(ctx, pair); err != nil {
		return nil, fmt.Errorf("inserting transfer pair: %w", err)
	}
	return pair, nil
}

// PaymentInput registers reimbursement income against a category.
type PaymentInput struct {
	CategoryID  uuid.UUID
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// RegisterPayment inserts a paid income row into the category and reconciles
// it, settling expenses oldest-first as far as the new income reaches. The
// insert and the reconciliation are two separate atomic steps; a failure in
// between is healed by the next reconciliation run.
func (s *Service) RegisterPayment(ctx context.Context, in PaymentInput) (*Transaction, ReconcileResult, error) {
	if !in.Amount.IsPositive() {
		return nil, ReconcileResult{}, ErrInvalidAmount
	}
	if in.AccountID == uuid.Nil {
		return nil, ReconcileResult{}, ErrMissingAccount
	}
	if in.Description == "" {
		return nil, ReconcileResult{}, ErrEmptyDescription
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	categoryID := in.CategoryID
	row := Transaction{
		ID:          uuid.New(),
		Description: in.Description,
		Amount:      in.Amount,
		Type:        TypeIncome,
		Date:        date,
		IsPaid:      true,
		AccountID:   in.AccountID,
		CategoryID:  &categoryID,
	}
	if err := s.store.InsertBatch(ctx, []Transaction{row}); err != nil {
		return nil, ReconcileResult{}, fmt.Errorf("inserting payment: %w", err)
	}

	result, err := s.reconcile(ctx, &categoryID)
	if err != nil {
		return &row, result, err
	}
	return &row, result, nil
}

// ReconcileCategory re-runs reconciliation for one category on demand.
func (s *Service) ReconcileCategory(ctx context.Context, categoryID uuid.UUID) (ReconcileResult, error) {
	return s.reconcile(ctx, &categoryID)
}

// CategoryStats recomputes a category's month buckets and totals from its
// source rows.
func (s *Service) CategoryStats(ctx context.Context, categoryID uuid.UUID) (CategoryStats, error) {
	rows, err := s.store.ListByCategory(ctx, categoryID)
	if err != nil {
		return CategoryStats{}, fmt.Errorf("listing category transactions: %w", err)
	}
	return ComputeCategoryStats(rows), nil
}

func (s *Service) reconcile(ctx context.Context, categoryID *uuid.UUID) (ReconcileResult, error) {
	if categoryID == nil {
		return ReconcileResult{Outcome: OutcomeSkipped}, nil
	}
	cat, err := s.categories.GetByID(ctx, *categoryID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("loading category: %w", err)
	}
	if cat == nil {
		// Category deleted meanwhile; nothing left to reconcile.
		return ReconcileResult{Outcome: OutcomeSkipped}, nil
	}

	result, err := s.reconciler.Reconcile(ctx, *cat)
	if err != nil {
		return result, err
	}

	switch result.Outcome {
	case OutcomeSettled:
		slog.Info("reconciliation settled expenses", "category", cat.Name, "rows", len(result.Settled))
	case OutcomeUnsettled:
		slog.Info("reconciliation unsettled expenses", "category", cat.Name, "rows", len(result.Unsettled))
	default:
		slog.Debug("reconciliation no-op", "category", cat.Name, "outcome", string(result.Outcome))
	}
	return result, nil
}

func sameCategory(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
