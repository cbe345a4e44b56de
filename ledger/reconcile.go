package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/billbatista/caderninho/category"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Outcome string

const (
	// OutcomeSkipped means the category is not reimbursable; nothing to do.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeBalanced means income and reimbursed value already agree
	// within tolerance.
	OutcomeBalanced Outcome = "balanced"
	OutcomeSettled  Outcome = "settled"
	// OutcomeUnsettled means income dropped below the reimbursed value and
	// rows were unmarked newest-first to recover the difference.
	OutcomeUnsettled Outcome = "unsettled"
)

type ReconcileResult struct {
	Outcome   Outcome
	Delta     decimal.Decimal
	Settled   []uuid.UUID
	Unsettled []uuid.UUID
}

// Reconciler keeps the reimbursed marks of a category consistent with the
// reimbursement income it received. Every run re-derives the state from the
// current aggregates, never from increments, so an interrupted flow heals on
// the next run. Runs on the same category are serialized.
type Reconciler struct {
	store Store

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{
		store: store,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *Reconciler) lock(categoryID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[categoryID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[categoryID] = l
	}
	return l
}

// Reconcile recomputes delta = totalIncome - totalReimbursedValue for the
// category and settles expenses oldest-first on a surplus, or unsettles them
// newest-first on a deficit. Within tolerance it mutates nothing. Expense
// rows are only ever settled whole: the surplus walk stops at the first row
// it cannot fully cover.
func (r *Reconciler) Reconcile(ctx context.Context, cat category.Category) (ReconcileResult, error) {
	if !cat.Reimbursable() {
		return ReconcileResult{Outcome: OutcomeSkipped}, nil
	}

	l := r.lock(cat.ID)
	l.Lock()
	defer l.Unlock()

	income, err := r.store.SumIncome(ctx, cat.ID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("summing income: %w", err)
	}
	reimbursed, err := r.store.SumReimbursed(ctx, cat.ID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("summing reimbursed value: %w", err)
	}

	delta := income.Sub(reimbursed)

	switch {
	case delta.GreaterThan(epsilon):
		return r.settle(ctx, cat.ID, delta)
	case delta.LessThan(epsilon.Neg()):
		return r.unsettle(ctx, cat.ID, delta)
	default:
		return ReconcileResult{Outcome: OutcomeBalanced, Delta: delta}, nil
	}
}

func (r *Reconciler) settle(ctx context.Context, categoryID uuid.UUID, delta decimal.Decimal) (ReconcileResult, error) {
	rows, err := r.store.ListUnreimbursed(ctx, categoryID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("listing unreimbursed expenses: %w", err)
	}

	var settled []uuid.UUID
	for _, row := range rows {
		cost := row.Cost()
		if delta.LessThan(cost.Sub(epsilon)) {
			// No partial settlement: the oldest uncovered row ends
			// the walk even if a smaller later row would fit.
			break
		}
		settled = append(settled, row.ID)
		delta = delta.Sub(cost)
	}

	if len(settled) == 0 {
		return ReconcileResult{Outcome: OutcomeBalanced, Delta: delta}, nil
	}
	if err := r.store.SetReimbursed(ctx, settled, true); err != nil {
		return ReconcileResult{}, fmt.Errorf("marking expenses reimbursed: %w", err)
	}

	return ReconcileResult{Outcome: OutcomeSettled, Delta: delta, Settled: settled}, nil
}

func (r *Reconciler) unsettle(ctx context.Context, categoryID uuid.UUID, delta decimal.Decimal) (ReconcileResult, error) {
	rows, err := r.store.ListReimbursed(ctx, categoryID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("listing reimbursed expenses: %w", err)
	}

	deficit := delta.Neg()
	recovered := decimal.Zero
	var unsettled []uuid.UUID
	for _, row := range rows {
		unsettled = append(unsettled, row.ID)
		recovered = recovered.Add(row.Cost())
		if recovered.GreaterThanOrEqual(deficit.Sub(epsilon)) {
			break
		}
	}

	if len(unsettled) == 0 {
		return ReconcileResult{Outcome: OutcomeBalanced, Delta: delta}, nil
	}
	if err := r.store.SetReimbursed(ctx, unsettled, false); err != nil {
		return ReconcileResult{}, fmt.Errorf("unmarking reimbursed expenses: %w", err)
	}

	return ReconcileResult{Outcome: OutcomeUnsettled, Delta: delta, Unsettled: unsettled}, nil
}
