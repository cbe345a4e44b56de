package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/billbatista/caderninho/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTemplates struct {
	templates []RecurringExpense
}

func (f *fakeTemplates) List(ctx context.Context) ([]RecurringExpense, error) {
	return f.templates, nil
}

func (f *fakeTemplates) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]RecurringExpense, error) {
	var out []RecurringExpense
	for _, template := range f.templates {
		for _, id := range ids {
			if template.ID == id {
				out = append(out, template)
			}
		}
	}
	return out, nil
}

type fakeLedger struct {
	rows []ledger.Transaction
}

func (f *fakeLedger) ListBetween(ctx context.Context, from, to time.Time) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, row := range f.rows {
		if !row.Date.Before(from) && !row.Date.After(to) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertBatch(ctx context.Context, rows []ledger.Transaction) error {
	f.rows = append(f.rows, rows...)
	return nil
}

type fakeReconciler struct {
	categories []uuid.UUID
}

func (f *fakeReconciler) ReconcileCategory(ctx context.Context, categoryID uuid.UUID) (ledger.ReconcileResult, error) {
	f.categories = append(f.categories, categoryID)
	return ledger.ReconcileResult{Outcome: ledger.OutcomeBalanced}, nil
}

func template(t *testing.T, description, amount string, day int) RecurringExpense {
	t.Helper()
	tpl, err := New(description, decimal.RequireFromString(amount), ledger.TypeExpense, day, nil, uuid.New())
	require.NoError(t, err)
	return tpl
}

func TestCheckPendingDetectsMissingTemplate(t *testing.T) {
	ctx := context.Background()
	netflix := template(t, "Netflix", "55", 10)
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{netflix}}, &fakeLedger{}, &fakeReconciler{})

	pending, err := matcher.CheckPending(ctx, time.July, 2025)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, netflix.ID, pending[0].ID)
}

func TestCheckPendingAfterMaterialize(t *testing.T) {
	ctx := context.Background()
	netflix := template(t, "Netflix", "55", 10)
	store := &fakeLedger{}
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{netflix}}, store, &fakeReconciler{})

	rows, err := matcher.Materialize(ctx, []uuid.UUID{netflix.ID}, time.July, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	pending, err := matcher.CheckPending(ctx, time.July, 2025)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A different month is still pending.
	pending, err = matcher.CheckPending(ctx, time.August, 2025)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMaterializeRowShape(t *testing.T) {
	ctx := context.Background()
	netflix := template(t, "Netflix", "55", 31)
	store := &fakeLedger{}
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{netflix}}, store, &fakeReconciler{})

	rows, err := matcher.Materialize(ctx, []uuid.UUID{netflix.ID}, time.February, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "Netflix", row.Description)
	assert.Equal(t, "-55", row.Amount.String())
	assert.Equal(t, ledger.TypeExpense, row.Type)
	// February has no day 31; the date clamps to the last day.
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), row.Date)
	assert.False(t, row.IsPaid)
	require.NotNil(t, row.MaterializedFrom)
	assert.Equal(t, netflix.ID, *row.MaterializedFrom)
}

func TestMaterializeIncomeTemplate(t *testing.T) {
	ctx := context.Background()
	salary, err := New("Salário", decimal.RequireFromString("4200"), ledger.TypeIncome, 5, nil, uuid.New())
	require.NoError(t, err)
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{salary}}, &fakeLedger{}, &fakeReconciler{})

	rows, err := matcher.Materialize(ctx, []uuid.UUID{salary.ID}, time.March, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "4200", rows[0].Amount.String())
}

func TestMaterializeReconcilesTouchedCategories(t *testing.T) {
	ctx := context.Background()
	categoryID := uuid.New()

	first := template(t, "Netflix", "55", 10)
	first.CategoryID = &categoryID
	second := template(t, "Spotify", "21.90", 15)
	second.CategoryID = &categoryID
	uncategorized := template(t, "Internet", "99.90", 20)

	store := &fakeLedger{}
	reconciler := &fakeReconciler{}
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{first, second, uncategorized}}, store, reconciler)

	_, err := matcher.Materialize(ctx, []uuid.UUID{first.ID, second.ID, uncategorized.ID}, time.July, 2025)
	require.NoError(t, err)

	// Rows land before reconciliation runs, once per distinct category;
	// category-less rows trigger nothing.
	require.Len(t, store.rows, 3)
	assert.Equal(t, []uuid.UUID{categoryID}, reconciler.categories)
}

func TestCheckPendingStructuralMatch(t *testing.T) {
	ctx := context.Background()
	netflix := template(t, "Netflix", "55", 10)
	// A row written by hand before the template link existed: matched by
	// case-insensitive description and equal magnitude.
	store := &fakeLedger{rows: []ledger.Transaction{{
		ID:          uuid.New(),
		Description: "NETFLIX",
		Amount:      decimal.RequireFromString("-55"),
		Type:        ledger.TypeExpense,
		Date:        time.Date(2025, time.July, 12, 0, 0, 0, 0, time.UTC),
		AccountID:   uuid.New(),
	}}}
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{netflix}}, store, &fakeReconciler{})

	pending, err := matcher.CheckPending(ctx, time.July, 2025)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCheckPendingAmountMismatch(t *testing.T) {
	ctx := context.Background()
	netflix := template(t, "Netflix", "55", 10)
	store := &fakeLedger{rows: []ledger.Transaction{{
		ID:          uuid.New(),
		Description: "Netflix",
		Amount:      decimal.RequireFromString("-44.90"),
		Type:        ledger.TypeExpense,
		Date:        time.Date(2025, time.July, 12, 0, 0, 0, 0, time.UTC),
		AccountID:   uuid.New(),
	}}}
	matcher := NewMatcher(&fakeTemplates{templates: []RecurringExpense{netflix}}, store, &fakeReconciler{})

	// Same name but different price does not count as materialized.
	pending, err := matcher.CheckPending(ctx, time.July, 2025)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestNewValidation(t *testing.T) {
	account := uuid.New()
	tests := []struct {
		name        string
		description string
		amount      string
		day         int
		account     uuid.UUID
		want        error
	}{
		{"empty description", "", "55", 10, account, ErrEmptyDescription},
		{"zero amount", "Netflix", "0", 10, account, ErrInvalidAmount},
		{"day too low", "Netflix", "55", 0, account, ErrInvalidDay},
		{"day too high", "Netflix", "55", 32, account, ErrInvalidDay},
		{"missing account", "Netflix", "55", 10, uuid.Nil, ErrMissingAccount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.description, decimal.RequireFromString(tc.amount), ledger.TypeExpense, tc.day, nil, tc.account)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
