package account

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a Account) error {
	statement := `INSERT INTO accounts (id, name, type, base_balance, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, statement, a.ID, a.Name, a.Type, a.BaseBalance, a.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, a Account) error {
	statement := `UPDATE accounts SET name = $2, type = $3, base_balance = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, statement, a.ID, a.Name, a.Type, a.BaseBalance)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT id, name, type, base_balance, created_at FROM accounts WHERE id = $1`

	var a Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Type, &a.BaseBalance, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &a, nil
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	query := `SELECT id, name, type, base_balance, created_at FROM accounts ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.BaseBalance, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return err
}

// BalanceAsOf re-derives an account's balance from its base balance plus all
// paid rows up to the given date. Reimbursed expenses are excluded: once an
// expense is settled by reimbursement income, its cost no longer reduces the
// paying account.
func (r *repository) BalanceAsOf(ctx context.Context, id uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	query := `SELECT a.base_balance + COALESCE(SUM(t.amount), 0)
              FROM accounts a
              LEFT JOIN transactions t
                ON t.account_id = a.id AND t.is_paid AND NOT t.is_reimbursed AND t.date <= $2
              WHERE a.id = $1
              GROUP BY a.base_balance`

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id, asOf).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}

	return balance, nil
}

// PortfolioBalance sums BalanceAsOf over every account.
func (r *repository) PortfolioBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(a.base_balance), 0) + COALESCE((
                SELECT SUM(t.amount) FROM transactions t
                WHERE t.is_paid AND NOT t.is_reimbursed AND t.date <= $1
              ), 0)
              FROM accounts a`

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, asOf).Scan(&balance); err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}

// Stats aggregates one calendar year of rows into per-month income and
// expense buckets plus the year totals.
func (r *repository) Stats(ctx context.Context, id uuid.UUID, year int) (*YearStats, error) {
	query := `SELECT date, amount, type FROM transactions
              WHERE account_id = $1 AND date >= $2 AND date < $3
              ORDER BY date ASC, created_at ASC`

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	rows, err := r.db.QueryContext(ctx, query, id, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &YearStats{Monthly: make([]MonthFlow, 12)}
	for i := range stats.Monthly {
		stats.Monthly[i].Month = time.Month(i + 1)
	}

	for rows.Next() {
		var (
			date   time.Time
			amount decimal.Decimal
			txType string
		)
		if err := rows.Scan(&date, &amount, &txType); err != nil {
			return nil, err
		}

		bucket := &stats.Monthly[int(date.Month())-1]
		if txType == "income" {
			bucket.Income = bucket.Income.Add(amount)
			stats.TotalIncome = stats.TotalIncome.Add(amount)
		} else {
			cost := amount.Abs()
			bucket.Expense = bucket.Expense.Add(cost)
			stats.TotalExpense = stats.TotalExpense.Add(cost)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.PeriodBalance = stats.TotalIncome.Sub(stats.TotalExpense)
	return stats, nil
}
