// Package rankings loads ranked (label, value, percent) rows from the chart
// data endpoint and renders them as horizontal bars.
package rankings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PratikDhanave/site-analytics/internal/models"
)

// Params identifies one chart: a website, a date range and a ranking type.
type Params struct {
	WebsiteID string
	StartAt   time.Time
	EndAt     time.Time
	Type      models.RankingType
}

func (p Params) equal(o Params) bool {
	return p.WebsiteID == o.WebsiteID &&
		p.StartAt.Equal(o.StartAt) &&
		p.EndAt.Equal(o.EndAt) &&
		p.Type == o.Type
}

// Fetcher loads the rows for a chart.
type Fetcher interface {
	Fetch(ctx context.Context, p Params) ([]models.Ranking, error)
}

// Client calls GET /api/website/{id}/rankings.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client for the API at baseURL. An empty apiKey sends no header.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the rows in server order with Z recomputed from Y.
func (c *Client) Fetch(ctx context.Context, p Params) ([]models.Ranking, error) {
	q := url.Values{}
	q.Set("start_at", strconv.FormatInt(p.StartAt.UnixMilli(), 10))
	q.Set("end_at", strconv.FormatInt(p.EndAt.UnixMilli(), 10))
	q.Set("type", string(p.Type))

	endpoint := fmt.Sprintf("%s/api/website/%s/rankings?%s", c.baseURL, url.PathEscape(p.WebsiteID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("rankings returned status %s: %s", resp.Status, body.Error)
	}

	var rows []models.Ranking
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rankings: %w", err)
	}
	return models.PercentFilter(rows), nil
}
