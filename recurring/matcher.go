package recurring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/billbatista/caderninho/ledger"
	"github.com/google/uuid"
)

type TemplateStore interface {
	List(ctx context.Context) ([]RecurringExpense, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]RecurringExpense, error)
}

type LedgerStore interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]ledger.Transaction, error)
	InsertBatch(ctx context.Context, rows []ledger.Transaction) error
}

// CategoryReconciler rebalances a category's reimbursed marks after its
// aggregates change. ledger.Service satisfies it.
type CategoryReconciler interface {
	ReconcileCategory(ctx context.Context, categoryID uuid.UUID) (ledger.ReconcileResult, error)
}

// Matcher detects which recurring templates still lack a ledger row in a
// given month and materializes the selected ones.
type Matcher struct {
	templates  TemplateStore
	ledger     LedgerStore
	reconciler CategoryReconciler
}

func NewMatcher(templates TemplateStore, ledgerStore LedgerStore, reconciler CategoryReconciler) *Matcher {
	return &Matcher{templates: templates, ledger: ledgerStore, reconciler: reconciler}
}

// CheckPending returns the templates with no matching transaction dated in
// the month. A row matches by its materialized_from link, or structurally by
// case-insensitive description and equal magnitude for rows written before
// the link existed. The result is re-derived every call; nothing is stored.
func (m *Matcher) CheckPending(ctx context.Context, month time.Month, year int) ([]RecurringExpense, error) {
	templates, err := m.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	rows, err := m.ledger.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing month transactions: %w", err)
	}

	var pending []RecurringExpense
	for _, template := range templates {
		if !materialized(template, rows) {
			pending = append(pending, template)
		}
	}

	return pending, nil
}

func materialized(template RecurringExpense, rows []ledger.Transaction) bool {
	for _, row := range rows {
		if row.MaterializedFrom != nil && *row.MaterializedFrom == template.ID {
			return true
		}
		sameName := strings.EqualFold(row.Description, template.Description)
		sameAmount := row.Amount.Abs().Equal(template.Amount.Abs())
		if sameName && sameAmount {
			return true
		}
	}
	return false
}

// Materialize turns the selected templates into one planned row each, dated
// on the template's due day clamped into the month, all inserted as one
// atomic batch.
func (m *Matcher) Materialize(ctx context.Context, ids []uuid.UUID, month time.Month, year int) ([]ledger.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	templates, err := m.templates.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	rows := make([]ledger.Transaction, 0, len(templates))
	for _, template := range templates {
		templateID := template.ID
		rows = append(rows, ledger.Transaction{
			ID:               uuid.New(),
			Description:      template.Description,
			Amount:           ledger.Sign(template.Amount, template.Type),
			Type:             template.Type,
			Date:             ledger.ClampedDayOfMonth(year, month, template.Day),
			IsPaid:           false,
			MaterializedFrom: &templateID,
			AccountID:        template.AccountID,
			CategoryID:       template.CategoryID,
		})
	}

	if err := m.ledger.InsertBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("inserting materialized rows: %w", err)
	}

	// Materialized rows change their categories' aggregates the same way a
	// hand-entered transaction would, so each touched category is
	// reconciled right away.
	seen := make(map[uuid.UUID]bool)
	for _, row := range rows {
		if row.CategoryID == nil || seen[*row.CategoryID] {
			continue
		}
		seen[*row.CategoryID] = true
		if _, err := m.reconciler.ReconcileCategory(ctx, *row.CategoryID); err != nil {
			return rows, fmt.Errorf("reconciling category: %w", err)
		}
	}

	return rows, nil
}
