package eventdata

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/PratikDhanave/site-analytics/internal/metrics"
	"github.com/PratikDhanave/site-analytics/internal/models"
)

const insertEventDataSQL = `
INSERT INTO event_data (
	event_data_id, website_id, website_event_id, data_key,
	string_value, number_value, date_value, data_type, created_at
) VALUES (
	:event_data_id, :website_id, :website_event_id, :data_key,
	:string_value, :number_value, :date_value, :data_type, :created_at
)`

// SQLStore writes event data to a relational event_data table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps db, which must hold an event_data table.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// SaveEventData flattens the payloads and inserts all rows in one transaction.
func (s *SQLStore) SaveEventData(ctx context.Context, data []models.EventDataInput) error {
	rows := Flatten(data)
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event data tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertEventDataSQL, rows); err != nil {
		return fmt.Errorf("insert event data: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event data: %w", err)
	}

	metrics.EventDataRows.Add(float64(len(rows)))
	return nil
}

// ListByEvent returns the rows stored for one website event, ordered by key.
func (s *SQLStore) ListByEvent(ctx context.Context, websiteEventID string) ([]models.EventDataRow, error) {
	var rows []models.EventDataRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT event_data_id, website_id, website_event_id, data_key,
		       string_value, number_value, date_value, data_type, created_at
		FROM event_data
		WHERE website_event_id = ?
		ORDER BY data_key
	`), websiteEventID)
	return rows, err
}
