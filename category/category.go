package category

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind splits categories into two variants: personal spending and
// reimbursable spending made on behalf of someone else. Only reimbursable
// categories ever enter the reconciliation path.
type Kind string

const (
	KindPersonal     Kind = "personal"
	KindReimbursable Kind = "reimbursable"
)

const (
	defaultIcon  = "📁"
	defaultColor = "#64748b"
)

type Category struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	Kind      Kind      `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

var (
	ErrEmptyName   = errors.New("name can't be empty")
	ErrInvalidKind = errors.New("kind must be personal or reimbursable")
	ErrNotFound    = errors.New("category not found")
)

func New(name, icon, color string, kind Kind) (Category, error) {
	if name == "" {
		return Category{}, ErrEmptyName
	}
	if kind == "" {
		kind = KindPersonal
	}
	if kind != KindPersonal && kind != KindReimbursable {
		return Category{}, ErrInvalidKind
	}
	if icon == "" {
		icon = defaultIcon
	}
	if color == "" {
		color = defaultColor
	}

	return Category{
		ID:        uuid.New(),
		Name:      name,
		Icon:      icon,
		Color:     color,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Reimbursable reports whether expenses in this category are paid on behalf
// of someone else and settle against reimbursement income.
func (c Category) Reimbursable() bool {
	return c.Kind == KindReimbursable
}
