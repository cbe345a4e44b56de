package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

var _ Store = (*repository)(nil)

const transactionColumns = `id, description, amount, type, date, is_paid, is_reimbursed,
    installment_id, installment_label, transfer_group, materialized_from,
    account_id, category_id, created_at`

func (r *repository) InsertBatch(ctx context.Context, rows []Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statement := `INSERT INTO transactions (` + transactionColumns + `)
                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	// created_at breaks ordering ties between rows of one batch, so each
	// row gets its own strictly increasing stamp.
	base := time.Now().UTC()
	for i, row := range rows {
		createdAt := row.CreatedAt
		if createdAt.IsZero() {
			createdAt = base.Add(time.Duration(i) * time.Microsecond)
		}
		_, err = tx.ExecContext(
			ctx,
			statement,
			row.ID,
			row.Description,
			row.Amount,
			row.Type,
			row.Date,
			row.IsPaid,
			row.IsReimbursed,
			row.InstallmentID,
			nullString(row.InstallmentLabel),
			row.TransferGroup,
			row.MaterializedFrom,
			row.AccountID,
			row.CategoryID,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	row, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

func (r *repository) UpdateBatch(ctx context.Context, rows []Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statement := `UPDATE transactions
                  SET description = $2, amount = $3, type = $4, date = $5, is_paid = $6,
                      is_reimbursed = $7, account_id = $8, category_id = $9
                  WHERE id = $1`

	for _, row := range rows {
		result, err := tx.ExecContext(
			ctx,
			statement,
			row.ID,
			row.Description,
			row.Amount,
			row.Type,
			row.Date,
			row.IsPaid,
			row.IsReimbursed,
			row.AccountID,
			row.CategoryID,
		)
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
	}

	return tx.Commit()
}

func (r *repository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

func (r *repository) DeleteGroup(ctx context.Context, installmentID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE installment_id = $1`, installmentID)
	return err
}

func (r *repository) ListGroup(ctx context.Context, installmentID uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE installment_id = $1
              ORDER BY date ASC, created_at ASC`
	return r.list(ctx, query, installmentID)
}

func (r *repository) ListTransferGroup(ctx context.Context, group uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE transfer_group = $1
              ORDER BY created_at ASC`
	return r.list(ctx, query, group)
}

func (r *repository) FindTwin(ctx context.Context, of Transaction) (*Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE id <> $1
                AND description LIKE $2 || '%'
                AND amount = $3
                AND date BETWEEN $4 AND $5
              ORDER BY ABS(EXTRACT(EPOCH FROM (created_at - $6::timestamptz))) ASC
              LIMIT 1`

	row, err := scanTransaction(r.db.QueryRowContext(
		ctx,
		query,
		of.ID,
		of.TwinPrefix(),
		of.Amount.Neg(),
		of.Date.Add(-TwinWindow),
		of.Date.Add(TwinWindow),
		of.CreatedAt,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

func (r *repository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE category_id = $1
              ORDER BY date ASC, created_at ASC`
	return r.list(ctx, query, categoryID)
}

func (r *repository) ListBetween(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE date >= $1 AND date <= $2
              ORDER BY date ASC, created_at ASC`
	return r.list(ctx, query, from, to)
}

func (r *repository) ListFuture(ctx context.Context, after time.Time) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE date > $1
              ORDER BY date ASC, created_at ASC`
	return r.list(ctx, query, after)
}

func (r *repository) SumIncome(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
              WHERE category_id = $1 AND type = 'income'`

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, categoryID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) SumReimbursed(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions
              WHERE category_id = $1 AND type = 'expense' AND is_reimbursed`

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, categoryID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) ListUnreimbursed(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE category_id = $1 AND type = 'expense' AND NOT is_reimbursed
              ORDER BY date ASC, created_at ASC`
	return r.list(ctx, query, categoryID)
}

func (r *repository) ListReimbursed(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
              WHERE category_id = $1 AND type = 'expense' AND is_reimbursed
              ORDER BY date DESC, created_at DESC`
	return r.list(ctx, query, categoryID)
}

func (r *repository) SetReimbursed(ctx context.Context, ids []uuid.UUID, reimbursed bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statement := `UPDATE transactions SET is_reimbursed = $2 WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, statement, pq.Array(ids), reimbursed); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}

	return transactions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*Transaction, error) {
	var (
		t                Transaction
		installmentID    uuid.NullUUID
		installmentLabel sql.NullString
		transferGroup    uuid.NullUUID
		materializedFrom uuid.NullUUID
		categoryID       uuid.NullUUID
	)
	err := s.Scan(
		&t.ID,
		&t.Description,
		&t.Amount,
		&t.Type,
		&t.Date,
		&t.IsPaid,
		&t.IsReimbursed,
		&installmentID,
		&installmentLabel,
		&transferGroup,
		&materializedFrom,
		&t.AccountID,
		&categoryID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if installmentID.Valid {
		t.InstallmentID = &installmentID.UUID
	}
	if installmentLabel.Valid {
		t.InstallmentLabel = installmentLabel.String
	}
	if transferGroup.Valid {
		t.TransferGroup = &transferGroup.UUID
	}
	if materializedFrom.Valid {
		t.MaterializedFrom = &materializedFrom.UUID
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.UUID
	}

	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
