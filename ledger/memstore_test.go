package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory Store so the engine algorithms can be tested
// without a database.
type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]Transaction
	seq  int64
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]Transaction)}
}

func (m *memStore) InsertBatch(ctx context.Context, rows []Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		if row.CreatedAt.IsZero() {
			m.seq++
			row.CreatedAt = time.Unix(0, m.seq)
		}
		m.rows[row.ID] = row
	}
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *memStore) UpdateBatch(ctx context.Context, rows []Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		if _, ok := m.rows[row.ID]; !ok {
			return ErrNotFound
		}
	}
	for _, row := range rows {
		existing := m.rows[row.ID]
		row.CreatedAt = existing.CreatedAt
		m.rows[row.ID] = row
	}
	return nil
}

func (m *memStore) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.rows, id)
	}
	return nil
}

func (m *memStore) DeleteGroup(ctx context.Context, installmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if row.InstallmentID != nil && *row.InstallmentID == installmentID {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memStore) ListGroup(ctx context.Context, installmentID uuid.UUID) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return t.InstallmentID != nil && *t.InstallmentID == installmentID
	}, byDateAsc), nil
}

func (m *memStore) ListTransferGroup(ctx context.Context, group uuid.UUID) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return t.TransferGroup != nil && *t.TransferGroup == group
	}, byDateAsc), nil
}

func (m *memStore) FindTwin(ctx context.Context, of Transaction) (*Transaction, error) {
	candidates := m.filter(func(t Transaction) bool {
		if t.ID == of.ID || !strings.HasPrefix(t.Description, of.TwinPrefix()) {
			return false
		}
		if !t.Amount.Equal(of.Amount.Neg()) {
			return false
		}
		distance := t.Date.Sub(of.Date)
		return distance >= -TwinWindow && distance <= TwinWindow
	}, byDateAsc)
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		di := candidates[i].CreatedAt.Sub(of.CreatedAt).Abs()
		dj := candidates[j].CreatedAt.Sub(of.CreatedAt).Abs()
		return di < dj
	})
	return &candidates[0], nil
}

func (m *memStore) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return t.CategoryID != nil && *t.CategoryID == categoryID
	}, byDateAsc), nil
}

func (m *memStore) ListBetween(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return !t.Date.Before(from) && !t.Date.After(to)
	}, byDateAsc), nil
}

func (m *memStore) ListFuture(ctx context.Context, after time.Time) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return t.Date.After(after)
	}, byDateAsc), nil
}

func (m *memStore) SumIncome(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.filter(func(t Transaction) bool {
		return t.Type == TypeIncome && t.CategoryID != nil && *t.CategoryID == categoryID
	}, byDateAsc) {
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (m *memStore) SumReimbursed(ctx context.Context, categoryID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range m.filter(func(t Transaction) bool {
		return t.Type == TypeExpense && t.IsReimbursed && t.CategoryID != nil && *t.CategoryID == categoryID
	}, byDateAsc) {
		total = total.Add(t.Amount.Abs())
	}
	return total, nil
}

func (m *memStore) ListUnreimbursed(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return t.Type == TypeExpense && !t.IsReimbursed && t.CategoryID != nil && *t.CategoryID == categoryID
	}, byDateAsc), nil
}

func (m *memStore) ListReimbursed(ctx context.Context, categoryID uuid.UUID) ([]Transaction, error) {
	return m.filter(func(t Transaction) bool {
		return t.Type == TypeExpense && t.IsReimbursed && t.CategoryID != nil && *t.CategoryID == categoryID
	}, byDateDesc), nil
}

func (m *memStore) SetReimbursed(ctx context.Context, ids []uuid.UUID, reimbursed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		row, ok := m.rows[id]
		if !ok {
			return ErrNotFound
		}
		row.IsReimbursed = reimbursed
		m.rows[id] = row
	}
	return nil
}

type ordering int

const (
	byDateAsc ordering = iota
	byDateDesc
)

func (m *memStore) filter(keep func(Transaction) bool, order ordering) []Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Transaction
	for _, row := range m.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if order == byDateDesc {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}
