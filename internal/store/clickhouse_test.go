package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/PratikDhanave/site-analytics/internal/models"
)

type capturedRequest struct {
	query url.Values
	body  string
	user  string
}

func newClickHouse(t *testing.T, handler func(w http.ResponseWriter, r capturedRequest)) (*ClickHouseStore, *[]capturedRequest) {
	t.Helper()
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		user, _, _ := r.BasicAuth()
		cr := capturedRequest{query: r.URL.Query(), body: string(b), user: user}
		got = append(got, cr)
		handler(w, cr)
	}))
	t.Cleanup(srv.Close)

	return NewClickHouseStore(ClickHouseConfig{
		URL:      srv.URL + "/",
		Database: "analytics",
		User:     "default",
		Password: "secret",
	}), &got
}

func TestClickHouse_InsertWebsiteEventsSendsJSONEachRow(t *testing.T) {
	ch, got := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {})

	path := "/a"
	events := []models.ClickHouseEvent{
		{WebsiteID: "w", SessionID: "s", VisitID: "v", EventID: "e1", URLPath: &path, EventType: models.EventTypePageView, CreatedAt: "2024-01-01 00:00:00"},
		{WebsiteID: "w", SessionID: "s", VisitID: "v", EventID: "e2", URLPath: &path, EventType: models.EventTypePageView, CreatedAt: "2024-01-01 00:00:00"},
	}
	if err := ch.InsertWebsiteEvents(context.Background(), events); err != nil {
		t.Fatalf("InsertWebsiteEvents: %v", err)
	}

	if len(*got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*got))
	}
	req := (*got)[0]
	if q := req.query.Get("query"); q != "INSERT INTO website_event FORMAT JSONEachRow" {
		t.Fatalf("query = %q", q)
	}
	if req.query.Get("database") != "analytics" || req.user != "default" {
		t.Fatalf("database=%q user=%q", req.query.Get("database"), req.user)
	}

	sc := bufio.NewScanner(strings.NewReader(req.body))
	var ids []string
	for sc.Scan() {
		var row map[string]any
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("bad row %q: %v", sc.Text(), err)
		}
		if _, ok := row["url_path"]; !ok {
			t.Fatalf("row missing snake_case url_path: %v", row)
		}
		ids = append(ids, row["event_id"].(string))
	}
	if len(ids) != 2 || ids[0] != "e1" || ids[1] != "e2" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestClickHouse_InsertEventDataTargetsEventDataTable(t *testing.T) {
	ch, got := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {})

	v := "pro"
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	err := ch.InsertEventData(context.Background(), []models.ClickHouseEventData{
		models.EventDataRow{ID: "d1", WebsiteID: "w", WebsiteEventID: "e1", DataKey: "plan", StringValue: &v, DataType: models.DataTypeString, CreatedAt: created}.Columnar(),
	})
	if err != nil {
		t.Fatalf("InsertEventData: %v", err)
	}
	if q := (*got)[0].query.Get("query"); q != "INSERT INTO event_data FORMAT JSONEachRow" {
		t.Fatalf("query = %q", q)
	}
	if !strings.Contains((*got)[0].body, `"event_id":"e1"`) || !strings.Contains((*got)[0].body, `"created_at":"2024-05-01 10:30:00"`) {
		t.Fatalf("body = %s", (*got)[0].body)
	}
}

func TestClickHouse_ErrorStatusPropagates(t *testing.T) {
	ch, _ := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {
		http.Error(w, "Code: 60. Table doesn't exist", http.StatusNotFound)
	})

	err := ch.InsertWebsiteEvents(context.Background(), []models.ClickHouseEvent{{EventID: "e"}})
	if err == nil || !strings.Contains(err.Error(), "Table doesn't exist") {
		t.Fatalf("err = %v", err)
	}
}

func TestClickHouse_EmptyInsertIsNoop(t *testing.T) {
	ch, got := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {})

	if err := ch.InsertWebsiteEvents(context.Background(), nil); err != nil {
		t.Fatalf("InsertWebsiteEvents: %v", err)
	}
	if len(*got) != 0 {
		t.Fatal("no request expected for an empty insert")
	}
}

func TestClickHouse_Rankings(t *testing.T) {
	ch, got := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {
		io.WriteString(w, "{\"x\":\"/a\",\"y\":7}\n{\"x\":\"/b\",\"y\":3}\n")
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := ch.Rankings(context.Background(), models.RankingsQuery{
		WebsiteID: "site-1",
		StartAt:   start,
		EndAt:     start.Add(24 * time.Hour),
		Type:      models.RankingBrowser,
	})
	if err != nil {
		t.Fatalf("Rankings: %v", err)
	}
	if len(rows) != 2 || rows[0].X != "/a" || rows[0].Y != 7 || rows[1].Y != 3 {
		t.Fatalf("rows = %+v", rows)
	}

	req := (*got)[0]
	if req.query.Get("param_website_id") != "site-1" || req.query.Get("param_start_at") != "2024-01-01 00:00:00" {
		t.Fatalf("params = %v", req.query)
	}
	if !strings.Contains(req.body, "SELECT browser AS x") {
		t.Fatalf("query body = %s", req.body)
	}
}

func TestClickHouse_RankingsUnsupportedType(t *testing.T) {
	ch, got := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {})

	_, err := ch.Rankings(context.Background(), models.RankingsQuery{Type: "weather"})
	if !errors.Is(err, ErrUnsupportedRanking) {
		t.Fatalf("err = %v", err)
	}
	if len(*got) != 0 {
		t.Fatal("unsupported type must not reach clickhouse")
	}
}

func TestClickHouse_Ping(t *testing.T) {
	ch, _ := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {
		io.WriteString(w, "Ok.\n")
	})
	if err := ch.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestLookupRanking_PostgresIsNarrower(t *testing.T) {
	if _, err := lookupRanking(postgresRankings, models.RankingBrowser); !errors.Is(err, ErrUnsupportedRanking) {
		t.Fatalf("browser should be unsupported on postgres, err = %v", err)
	}
	c, err := lookupRanking(postgresRankings, models.RankingEvent)
	if err != nil || c.column != "event_name" || c.eventType != models.EventTypeCustomEvent {
		t.Fatalf("event ranking = %+v, %v", c, err)
	}
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})
	return sr
}

func TestClickHouse_RankingsSpanCoversRowDecoding(t *testing.T) {
	sr := recordSpans(t)
	ch, _ := newClickHouse(t, func(w http.ResponseWriter, _ capturedRequest) {
		io.WriteString(w, "{\"x\":\"/a\",\"y\":7}\nnot-json\n")
	})

	_, err := ch.Rankings(context.Background(), models.RankingsQuery{WebsiteID: "site-1", Type: models.RankingURL})
	if err == nil {
		t.Fatal("expected decode error")
	}

	var found bool
	for _, s := range sr.Ended() {
		if s.Name() != "clickhouse.select" {
			continue
		}
		found = true
		if s.Status().Code != codes.Error {
			t.Fatalf("select span status = %v, want error", s.Status())
		}
	}
	if !found {
		t.Fatal("no clickhouse.select span recorded")
	}
}
