package recurring

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

const columns = `id, description, amount, type, day, category_id, account_id, created_at`

func (r *repository) Create(ctx context.Context, e RecurringExpense) error {
	statement := `INSERT INTO recurring_expenses (` + columns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, statement, e.ID, e.Description, e.Amount, e.Type, e.Day, e.CategoryID, e.AccountID, e.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, e RecurringExpense) error {
	statement := `UPDATE recurring_expenses
                  SET description = $2, amount = $3, type = $4, day = $5, category_id = $6, account_id = $7
                  WHERE id = $1`
	result, err := r.db.ExecContext(ctx, statement, e.ID, e.Description, e.Amount, e.Type, e.Day, e.CategoryID, e.AccountID)
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

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = $1`, id)
	return err
}

func (r *repository) List(ctx context.Context) ([]RecurringExpense, error) {
	query := `SELECT ` + columns + ` FROM recurring_expenses ORDER BY day ASC, description ASC`
	return r.list(ctx, query)
}

func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]RecurringExpense, error) {
	query := `SELECT ` + columns + ` FROM recurring_expenses WHERE id = ANY($1) ORDER BY day ASC`
	return r.list(ctx, query, pq.Array(ids))
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []RecurringExpense
	for rows.Next() {
		var (
			e          RecurringExpense
			categoryID uuid.NullUUID
		)
		err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Type, &e.Day, &categoryID, &e.AccountID, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		if categoryID.Valid {
			e.CategoryID = &categoryID.UUID
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}
