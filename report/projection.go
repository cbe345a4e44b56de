package report

import (
	"context"
	"fmt"
	"time"

	"github.com/billbatista/caderninho/ledger"
	"github.com/billbatista/caderninho/recurring"
	"github.com/shopspring/decimal"
)

type BalanceSource interface {
	PortfolioBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
}

type TemplateSource interface {
	List(ctx context.Context) ([]recurring.RecurringExpense, error)
}

type FutureSource interface {
	ListFuture(ctx context.Context, after time.Time) ([]ledger.Transaction, error)
}

// Projection is the raw material for a cash-flow simulation: where the
// portfolio stands today, the monthly obligations, and every row already
// scheduled in the future. Recomputed from source rows on every call.
type Projection struct {
	StartBalance       decimal.Decimal              `json:"start_balance"`
	Recurring          []recurring.RecurringExpense `json:"recurring"`
	FutureTransactions []ledger.Transaction         `json:"future_transactions"`
}

type Projector struct {
	balances  BalanceSource
	templates TemplateSource
	future    FutureSource
}

func NewProjector(balances BalanceSource, templates TemplateSource, future FutureSource) *Projector {
	return &Projector{balances: balances, templates: templates, future: future}
}

func (p *Projector) Project(ctx context.Context, now time.Time) (*Projection, error) {
	balance, err := p.balances.PortfolioBalance(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("computing portfolio balance: %w", err)
	}
	templates, err := p.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recurring templates: %w", err)
	}
	future, err := p.future.ListFuture(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing future transactions: %w", err)
	}

	return &Projection{
		StartBalance:       balance,
		Recurring:          templates,
		FutureTransactions: future,
	}, nil
}
