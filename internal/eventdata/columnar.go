package eventdata

import (
	"context"

	"github.com/PratikDhanave/site-analytics/internal/ingest"
	"github.com/PratikDhanave/site-analytics/internal/metrics"
	"github.com/PratikDhanave/site-analytics/internal/models"
)

// Inserter writes rows to the columnar event_data table.
type Inserter interface {
	InsertEventData(ctx context.Context, rows []models.ClickHouseEventData) error
}

// ColumnarStore mirrors the event write path: rows are published when a
// publisher is set, inserted otherwise.
type ColumnarStore struct {
	inserter  Inserter
	publisher ingest.Publisher
	topic     string
}

// NewColumnarStore takes a nil publisher to insert directly.
func NewColumnarStore(inserter Inserter, publisher ingest.Publisher, topic string) *ColumnarStore {
	if topic == "" {
		topic = "event_data"
	}
	return &ColumnarStore{inserter: inserter, publisher: publisher, topic: topic}
}

// SaveEventData flattens the payloads and publishes or inserts the rows in
// their columnar shape.
func (s *ColumnarStore) SaveEventData(ctx context.Context, data []models.EventDataInput) error {
	flat := Flatten(data)
	if len(flat) == 0 {
		return nil
	}
	rows := make([]models.ClickHouseEventData, len(flat))
	for i := range flat {
		rows[i] = flat[i].Columnar()
	}

	if s.publisher != nil {
		messages := make([]any, len(rows))
		for i := range rows {
			messages[i] = rows[i]
		}
		if err := s.publisher.SendMessages(ctx, s.topic, messages); err != nil {
			return err
		}
	} else if err := s.inserter.InsertEventData(ctx, rows); err != nil {
		return err
	}

	metrics.EventDataRows.Add(float64(len(rows)))
	return nil
}
