package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/PratikDhanave/site-analytics/internal/logging"
	"github.com/PratikDhanave/site-analytics/internal/models"
	"github.com/PratikDhanave/site-analytics/internal/tracing"
)

const clickhouseDateTime = models.ClickHouseTimeLayout

// ClickHouseConfig addresses the HTTP interface, e.g. http://localhost:8123.
type ClickHouseConfig struct {
	URL      string
	Database string
	User     string
	Password string
	Timeout  time.Duration
}

// ClickHouseStore talks to ClickHouse over its HTTP interface using
// JSONEachRow for both inserts and selects.
type ClickHouseStore struct {
	cfg    ClickHouseConfig
	client *http.Client
}

// NewClickHouseStore returns a store with a 10s default timeout.
func NewClickHouseStore(cfg ClickHouseConfig) *ClickHouseStore {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ClickHouseStore{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Ping hits /ping, which answers "Ok." without touching a database.
func (c *ClickHouseStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clickhouse ping returned status: %s", resp.Status)
	}
	return nil
}

// InsertWebsiteEvents writes events to website_event in one request.
func (c *ClickHouseStore) InsertWebsiteEvents(ctx context.Context, events []models.ClickHouseEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]any, len(events))
	for i := range events {
		rows[i] = events[i]
	}
	return c.insert(ctx, "website_event", rows)
}

// InsertEventData writes flattened payload rows to event_data.
func (c *ClickHouseStore) InsertEventData(ctx context.Context, data []models.ClickHouseEventData) error {
	if len(data) == 0 {
		return nil
	}
	rows := make([]any, len(data))
	for i := range data {
		rows[i] = data[i]
	}
	return c.insert(ctx, "event_data", rows)
}

// Rankings mirrors PostgresStore.Rankings with the wider columnar column set.
func (c *ClickHouseStore) Rankings(ctx context.Context, q models.RankingsQuery) ([]models.Ranking, error) {
	col, err := lookupRanking(clickhouseRankings, q.Type)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer().Start(ctx, "clickhouse.select")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %[1]s AS x, count() AS y
		FROM website_event
		WHERE website_id = {website_id:UUID}
		  AND created_at BETWEEN {start_at:DateTime} AND {end_at:DateTime}
		  AND event_type = {event_type:UInt32}
		  AND %[1]s IS NOT NULL AND %[1]s != ''
		GROUP BY x
		ORDER BY y DESC, x ASC
		FORMAT JSONEachRow`, col.column)

	params := url.Values{}
	params.Set("param_website_id", q.WebsiteID)
	params.Set("param_start_at", q.StartAt.UTC().Format(clickhouseDateTime))
	params.Set("param_end_at", q.EndAt.UTC().Format(clickhouseDateTime))
	params.Set("param_event_type", fmt.Sprint(int(col.eventType)))
	params.Set("output_format_json_quote_64bit_integers", "0")

	body, err := c.do(ctx, params, strings.NewReader(query))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer body.Close()

	var out []models.Ranking
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var r struct {
			X string  `json:"x"`
			Y float64 `json:"y"`
		}
		if err := json.Unmarshal(line, &r); err != nil {
			span.SetStatus(codes.Error, "decode ranking row")
			return nil, fmt.Errorf("decode ranking row: %w", err)
		}
		out = append(out, models.Ranking{X: r.X, Y: r.Y})
	}
	return out, sc.Err()
}

func (c *ClickHouseStore) insert(ctx context.Context, table string, rows []any) error {
	ctx, span := tracing.Tracer().Start(ctx, "clickhouse.insert")
	defer span.End()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf("INSERT INTO %s FORMAT JSONEachRow", table))
	params.Set("date_time_input_format", "best_effort")
	params.Set("input_format_skip_unknown_fields", "1")

	body, err := c.do(ctx, params, &buf)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		logging.WithTrace(ctx, "insert into %s failed: %v", table, err)
		return err
	}
	body.Close()
	return nil
}

// do posts body to the HTTP interface. The caller closes the returned body
// inside its own span.
func (c *ClickHouseStore) do(ctx context.Context, params url.Values, body io.Reader) (io.ReadCloser, error) {
	if c.cfg.Database != "" {
		params.Set("database", c.cfg.Database)
	}
	endpoint := c.cfg.URL + "/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("request creation error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.User != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post error: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("clickhouse returned status: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return resp.Body, nil
}
