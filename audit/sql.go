package audit

import (
	"context"
	"database/sql"
	"encoding/json"
)

type sqlEventLogger struct {
	db *sql.DB
}

func NewSqlEventLogger(db *sql.DB) *sqlEventLogger {
	return &sqlEventLogger{
		db: db,
	}
}

func (el *sqlEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	statement := `INSERT INTO audit_events (id, kind, data, metadata, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = el.db.ExecContext(ctx, statement, e.ID, e.Kind, jsonData, jsonMetadata, e.CreatedAt)
	return err
}

func (el *sqlEventLogger) GetByKind(ctx context.Context, kind Kind) ([]Event, error) {
	query := `SELECT id, kind, data, metadata, created_at FROM audit_events WHERE kind = $1 ORDER BY created_at DESC`
	result, err := el.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	events := make([]Event, 0)
	for result.Next() {
		var (
			event        Event
			jsonData     []byte
			jsonMetadata []byte
		)
		if err := result.Scan(&event.ID, &event.Kind, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		var data any
		if err := json.Unmarshal(jsonData, &data); err == nil {
			event.Data = data
		}
		var metadata map[string]string
		if err := json.Unmarshal(jsonMetadata, &metadata); err == nil {
			event.Metadata = metadata
		}

		events = append(events, event)
	}

	if err := result.Err(); err != nil {
		return events, err
	}

	return events, nil
}
