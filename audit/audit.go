package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names the ledger mutations worth a trail. Reads are never audited.
type Kind string

const (
	KindTransactionCreated     Kind = "transaction.created"
	KindTransactionUpdated     Kind = "transaction.updated"
	KindTransactionDeleted     Kind = "transaction.deleted"
	KindTransferCreated        Kind = "transfer.created"
	KindPaymentRegistered      Kind = "payment.registered"
	KindReconciliationSettled  Kind = "reconciliation.settled"
	KindReconciliationReversed Kind = "reconciliation.unsettled"
	KindRecurringMaterialized  Kind = "recurring.materialized"
)

type Event struct {
	ID        uuid.UUID         `json:"id,omitempty"`
	Kind      Kind              `json:"kind,omitempty"`
	Data      any               `json:"data,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EventOption func(*Event)

func WithData(data any) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		e.Metadata = metadata
	}
}

// WithRow tags the event with the ledger row it concerns.
func WithRow(id uuid.UUID) EventOption {
	return func(e *Event) {
		e.Metadata["transaction_id"] = id.String()
	}
}

// WithCategory tags the event with the category it concerns.
func WithCategory(id uuid.UUID) EventOption {
	return func(e *Event) {
		e.Metadata["category_id"] = id.String()
	}
}

func NewEvent(kind Kind, opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

type EventLogger interface {
	Save(ctx context.Context, e Event) error
	GetByKind(ctx context.Context, kind Kind) ([]Event, error)
}
