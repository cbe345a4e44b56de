package category

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c Category) error {
	statement := `INSERT INTO categories (id, name, icon, color, kind, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, statement, c.ID, c.Name, c.Icon, c.Color, c.Kind, c.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, c Category) error {
	statement := `UPDATE categories SET name = $2, icon = $3, color = $4, kind = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, statement, c.ID, c.Name, c.Icon, c.Color, c.Kind)
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

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `SELECT id, name, icon, color, kind, created_at FROM categories WHERE id = $1`

	var c Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Kind, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) List(ctx context.Context) ([]Category, error) {
	query := `SELECT id, name, icon, color, kind, created_at FROM categories ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Kind, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// Delete removes a category. Transactions keep existing with a null
// category; deleting an already-missing category is a no-op.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}
