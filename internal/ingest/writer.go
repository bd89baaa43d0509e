// Package ingest turns a logical event write into backend-shaped records and
// hands them to the configured store, broker and event data store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/PratikDhanave/site-analytics/internal/config"
	"github.com/PratikDhanave/site-analytics/internal/logging"
	"github.com/PratikDhanave/site-analytics/internal/metrics"
	"github.com/PratikDhanave/site-analytics/internal/models"
	"github.com/PratikDhanave/site-analytics/internal/tracing"
)

// ClickHouseTimeLayout is the DateTime format accepted by JSONEachRow inserts.
const ClickHouseTimeLayout = models.ClickHouseTimeLayout

// RelationalStore creates website_event rows in one call.
type RelationalStore interface {
	CreateWebsiteEvents(ctx context.Context, events []models.WebsiteEvent) error
}

// ColumnarStore inserts website_event rows directly.
type ColumnarStore interface {
	InsertWebsiteEvents(ctx context.Context, events []models.ClickHouseEvent) error
}

// Publisher sends serialized records to a broker topic.
type Publisher interface {
	SendMessages(ctx context.Context, topic string, messages []any) error
}

// EventDataStore persists free-form payloads keyed by event id.
type EventDataStore interface {
	SaveEventData(ctx context.Context, data []models.EventDataInput) error
}

// Options wires a Writer. Only the collaborators of Backend are required;
// Publisher is optional and only consulted for the clickhouse backend.
type Options struct {
	Backend    config.Backend
	Relational RelationalStore
	Columnar   ColumnarStore
	Publisher  Publisher
	EventTopic string
	EventData  EventDataStore
}

// Result reports the identifiers shared by, and generated for, a write.
type Result struct {
	SessionID string
	VisitID   string
	EventIDs  []string
}

// Writer is safe for concurrent use; it holds no per-request state.
type Writer struct {
	backend    config.Backend
	relational RelationalStore
	columnar   ColumnarStore
	publisher  Publisher
	eventTopic string
	eventData  EventDataStore

	now   func() time.Time
	newID func() string
}

// New validates opts against the selected backend.
func New(opts Options) (*Writer, error) {
	switch opts.Backend {
	case config.BackendPostgres:
		if opts.Relational == nil {
			return nil, errors.New("ingest: postgresql backend requires a relational store")
		}
	case config.BackendClickHouse:
		if opts.Columnar == nil && opts.Publisher == nil {
			return nil, errors.New("ingest: clickhouse backend requires a columnar store or publisher")
		}
	default:
		return nil, fmt.Errorf("ingest: unknown backend %q", opts.Backend)
	}
	if opts.EventData == nil {
		return nil, errors.New("ingest: event data store required")
	}

	topic := opts.EventTopic
	if topic == "" {
		topic = "event"
	}

	return &Writer{
		backend:    opts.Backend,
		relational: opts.Relational,
		columnar:   opts.Columnar,
		publisher:  opts.Publisher,
		eventTopic: topic,
		eventData:  opts.EventData,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Save writes one event, or one event per batch payload, to the configured
// backend, then stores any attached payloads. Errors are returned as-is from
// whichever stage failed; nothing is retried or rolled back.
func (w *Writer) Save(ctx context.Context, req models.SaveEventRequest) (Result, error) {
	ctx, span := tracing.Tracer().Start(ctx, "ingest.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("backend", string(w.backend)),
		attribute.String("website_id", req.WebsiteID),
		attribute.Int("batch_size", len(req.EventBatchData)),
	)

	start := time.Now()
	defer func() {
		metrics.WriteLatency.Observe(time.Since(start).Seconds())
	}()

	var (
		res Result
		err error
	)
	switch w.backend {
	case config.BackendPostgres:
		res, err = w.saveRelational(ctx, req)
	default:
		res, err = w.saveColumnar(ctx, req)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.WithTrace(ctx, "save event website=%s failed: %v", req.WebsiteID, err)
		return Result{}, err
	}
	return res, nil
}

func (w *Writer) saveRelational(ctx context.Context, req models.SaveEventRequest) (Result, error) {
	createdAt := w.now().UTC()
	payloads := payloadsOf(req)

	events := make([]models.WebsiteEvent, 0, len(payloads))
	data := make([]models.EventDataInput, 0, len(payloads))
	res := Result{SessionID: req.SessionID, VisitID: req.VisitID}

	for _, payload := range payloads {
		id := w.newID()
		res.EventIDs = append(res.EventIDs, id)
		events = append(events, relationalEvent(id, req, createdAt))
		data = append(data, eventDataInput(id, req, payload, createdAt))
	}

	if err := w.relational.CreateWebsiteEvents(ctx, events); err != nil {
		metrics.WriteErrors.WithLabelValues("event").Inc()
		return Result{}, err
	}
	metrics.EventsWritten.WithLabelValues(string(config.BackendPostgres)).Add(float64(len(events)))

	if err := w.saveEventData(ctx, req, data); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (w *Writer) saveColumnar(ctx context.Context, req models.SaveEventRequest) (Result, error) {
	createdAt := w.now().UTC()
	payloads := payloadsOf(req)

	events := make([]models.ClickHouseEvent, 0, len(payloads))
	data := make([]models.EventDataInput, 0, len(payloads))
	res := Result{SessionID: req.SessionID, VisitID: req.VisitID}

	for _, payload := range payloads {
		id := w.newID()
		res.EventIDs = append(res.EventIDs, id)
		events = append(events, columnarEvent(id, req, createdAt))
		data = append(data, eventDataInput(id, req, payload, createdAt))
	}

	if w.publisher != nil {
		messages := make([]any, len(events))
		for i := range events {
			messages[i] = events[i]
		}
		if err := w.publisher.SendMessages(ctx, w.eventTopic, messages); err != nil {
			metrics.WriteErrors.WithLabelValues("event").Inc()
			return Result{}, err
		}
		metrics.EventsWritten.WithLabelValues("kafka").Add(float64(len(events)))
	} else {
		if err := w.columnar.InsertWebsiteEvents(ctx, events); err != nil {
			metrics.WriteErrors.WithLabelValues("event").Inc()
			return Result{}, err
		}
		metrics.EventsWritten.WithLabelValues(string(config.BackendClickHouse)).Add(float64(len(events)))
	}

	if err := w.saveEventData(ctx, req, data); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (w *Writer) saveEventData(ctx context.Context, req models.SaveEventRequest, data []models.EventDataInput) error {
	if len(req.EventData) == 0 && len(req.EventBatchData) == 0 {
		return nil
	}
	if err := w.eventData.SaveEventData(ctx, data); err != nil {
		metrics.WriteErrors.WithLabelValues("event_data").Inc()
		return err
	}
	return nil
}

// payloadsOf returns one entry per record to create: the batch when present,
// otherwise the single (possibly nil) payload.
func payloadsOf(req models.SaveEventRequest) []map[string]any {
	if len(req.EventBatchData) > 0 {
		return req.EventBatchData
	}
	return []map[string]any{req.EventData}
}

func relationalEvent(id string, req models.SaveEventRequest, createdAt time.Time) models.WebsiteEvent {
	return models.WebsiteEvent{
		ID:             id,
		WebsiteID:      req.WebsiteID,
		SessionID:      req.SessionID,
		VisitID:        req.VisitID,
		URLPath:        truncated(req.URLPath, models.URLLength),
		URLQuery:       truncated(req.URLQuery, models.URLLength),
		ReferrerPath:   truncated(req.ReferrerPath, models.URLLength),
		ReferrerQuery:  truncated(req.ReferrerQuery, models.URLLength),
		ReferrerDomain: truncated(req.ReferrerDomain, models.URLLength),
		PageTitle:      truncated(req.PageTitle, models.PageTitleLength),
		EventType:      eventType(req.EventName),
		EventName:      truncated(req.EventName, models.EventNameLength),
		Tag:            truncated(req.Tag, models.TagLength),
		CreatedAt:      createdAt,
	}
}

func columnarEvent(id string, req models.SaveEventRequest, createdAt time.Time) models.ClickHouseEvent {
	return models.ClickHouseEvent{
		WebsiteID:      req.WebsiteID,
		SessionID:      req.SessionID,
		VisitID:        req.VisitID,
		EventID:        id,
		Hostname:       nullable(req.Hostname),
		Browser:        nullable(req.Browser),
		OS:             nullable(req.OS),
		Device:         nullable(req.Device),
		Screen:         nullable(req.Screen),
		Language:       nullable(req.Language),
		Country:        nullable(req.Country),
		Subdivision1:   NormalizeSubdivision(req.Country, req.Subdivision1),
		Subdivision2:   nullable(req.Subdivision2),
		City:           nullable(req.City),
		URLPath:        truncated(req.URLPath, models.URLLength),
		URLQuery:       truncated(req.URLQuery, models.URLLength),
		ReferrerPath:   truncated(req.ReferrerPath, models.URLLength),
		ReferrerQuery:  truncated(req.ReferrerQuery, models.URLLength),
		ReferrerDomain: truncated(req.ReferrerDomain, models.URLLength),
		PageTitle:      truncated(req.PageTitle, models.PageTitleLength),
		EventType:      eventType(req.EventName),
		EventName:      truncated(req.EventName, models.EventNameLength),
		Tag:            truncated(req.Tag, models.TagLength),
		CreatedAt:      createdAt.UTC().Format(ClickHouseTimeLayout),
	}
}

func eventDataInput(id string, req models.SaveEventRequest, payload map[string]any, createdAt time.Time) models.EventDataInput {
	return models.EventDataInput{
		WebsiteID: req.WebsiteID,
		SessionID: req.SessionID,
		VisitID:   req.VisitID,
		EventID:   id,
		URLPath:   Truncate(req.URLPath, models.URLLength),
		EventName: Truncate(req.EventName, models.EventNameLength),
		EventData: payload,
		CreatedAt: createdAt,
	}
}

func eventType(name string) models.EventType {
	if name != "" {
		return models.EventTypeCustomEvent
	}
	return models.EventTypePageView
}
