package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/billbatista/caderninho/category"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reimbursableCategory(t *testing.T) category.Category {
	t.Helper()
	cat, err := category.New("Mãe", "👵", "#f97316", category.KindReimbursable)
	require.NoError(t, err)
	return cat
}

func expenseOn(t *testing.T, store *memStore, categoryID uuid.UUID, date time.Time, magnitude string) Transaction {
	t.Helper()
	row := Transaction{
		ID:          uuid.New(),
		Description: "compra",
		Amount:      decimal.RequireFromString(magnitude).Neg(),
		Type:        TypeExpense,
		Date:        date,
		IsPaid:      true,
		AccountID:   uuid.New(),
		CategoryID:  &categoryID,
	}
	require.NoError(t, store.InsertBatch(context.Background(), []Transaction{row}))
	return row
}

func incomeOn(t *testing.T, store *memStore, categoryID uuid.UUID, date time.Time, magnitude string) Transaction {
	t.Helper()
	row := Transaction{
		ID:          uuid.New(),
		Description: "Reembolso",
		Amount:      decimal.RequireFromString(magnitude),
		Type:        TypeIncome,
		Date:        date,
		IsPaid:      true,
		AccountID:   uuid.New(),
		CategoryID:  &categoryID,
	}
	require.NoError(t, store.InsertBatch(context.Background(), []Transaction{row}))
	return row
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReconcileSettlesOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	jan5 := expenseOn(t, store, cat.ID, day(2025, time.January, 5), "50")
	jan20 := expenseOn(t, store, cat.ID, day(2025, time.January, 20), "30")
	feb1 := expenseOn(t, store, cat.ID, day(2025, time.February, 1), "40")
	incomeOn(t, store, cat.ID, day(2025, time.February, 2), "80")

	result, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSettled, result.Outcome)
	assert.Equal(t, []uuid.UUID{jan5.ID, jan20.ID}, result.Settled)

	for id, want := range map[uuid.UUID]bool{jan5.ID: true, jan20.ID: true, feb1.ID: false} {
		row, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, row.IsReimbursed)
	}
}

func TestReconcileStopsAtFirstUncoveredRow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	// The oldest row costs more than the surplus; a smaller later row
	// would fit but the walk must not skip ahead to it.
	big := expenseOn(t, store, cat.ID, day(2025, time.March, 1), "100")
	small := expenseOn(t, store, cat.ID, day(2025, time.March, 15), "20")
	incomeOn(t, store, cat.ID, day(2025, time.March, 20), "50")

	result, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBalanced, result.Outcome)

	for _, id := range []uuid.UUID{big.ID, small.ID} {
		row, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, row.IsReimbursed)
	}
}

func TestReconcileUnsettlesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	jan5 := expenseOn(t, store, cat.ID, day(2025, time.January, 5), "50")
	jan20 := expenseOn(t, store, cat.ID, day(2025, time.January, 20), "30")
	require.NoError(t, store.SetReimbursed(ctx, []uuid.UUID{jan5.ID, jan20.ID}, true))
	incomeOn(t, store, cat.ID, day(2025, time.January, 25), "50")

	result, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnsettled, result.Outcome)
	assert.Equal(t, []uuid.UUID{jan20.ID}, result.Unsettled)

	oldest, err := store.GetByID(ctx, jan5.ID)
	require.NoError(t, err)
	assert.True(t, oldest.IsReimbursed)
	newest, err := store.GetByID(ctx, jan20.ID)
	require.NoError(t, err)
	assert.False(t, newest.IsReimbursed)
}

func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	expenseOn(t, store, cat.ID, day(2025, time.January, 5), "50")
	expenseOn(t, store, cat.ID, day(2025, time.January, 20), "30")
	incomeOn(t, store, cat.ID, day(2025, time.February, 2), "80")

	reconciler := NewReconciler(store)
	first, err := reconciler.Reconcile(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, first.Outcome)

	second, err := reconciler.Reconcile(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBalanced, second.Outcome)
	assert.Empty(t, second.Settled)
	assert.Empty(t, second.Unsettled)
}

func TestReconcileNeverSettlesBeyondIncome(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	expenseOn(t, store, cat.ID, day(2025, time.January, 5), "50")
	expenseOn(t, store, cat.ID, day(2025, time.January, 20), "30")
	income := incomeOn(t, store, cat.ID, day(2025, time.February, 2), "60")

	_, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)

	reimbursed, err := store.SumReimbursed(ctx, cat.ID)
	require.NoError(t, err)
	assert.True(t, reimbursed.LessThanOrEqual(income.Amount),
		"reimbursed %s exceeds income %s", reimbursed, income.Amount)
	assert.Equal(t, "50", reimbursed.String())
}

func TestReconcileSkipsPersonalCategory(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat, err := category.New("Mercado", "🛒", "", category.KindPersonal)
	require.NoError(t, err)

	expenseOn(t, store, cat.ID, day(2025, time.January, 5), "50")
	incomeOn(t, store, cat.ID, day(2025, time.January, 6), "50")

	result, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
}

func TestReconcileToleratesCentRounding(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	row := expenseOn(t, store, cat.ID, day(2025, time.January, 5), "33.34")
	incomeOn(t, store, cat.ID, day(2025, time.January, 6), "33.33")

	result, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, result.Outcome)

	settled, err := store.GetByID(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, settled.IsReimbursed)
}

func TestReconcileNeverMarksIncomeRows(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cat := reimbursableCategory(t)

	income := incomeOn(t, store, cat.ID, day(2025, time.January, 6), "100")
	incomeOn(t, store, cat.ID, day(2025, time.January, 7), "50")

	result, err := NewReconciler(store).Reconcile(ctx, cat)
	require.NoError(t, err)
	// Surplus with nothing to settle leaves everything untouched.
	assert.Equal(t, OutcomeBalanced, result.Outcome)

	row, err := store.GetByID(ctx, income.ID)
	require.NoError(t, err)
	assert.False(t, row.IsReimbursed)
}
