package rankings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PratikDhanave/site-analytics/internal/models"
)

type countingFetcher struct {
	rows  []models.Ranking
	err   error
	calls int
}

func (f *countingFetcher) Fetch(_ context.Context, _ Params) ([]models.Ranking, error) {
	f.calls++
	return f.rows, f.err
}

func entries(n int) []models.Ranking {
	rows := make([]models.Ranking, n)
	for i := range rows {
		rows[i] = models.Ranking{X: fmt.Sprintf("/page-%02d", i), Y: float64(100 - i)}
	}
	return models.PercentFilter(rows)
}

var (
	day   = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	pages = Params{WebsiteID: "site-1", StartAt: day, EndAt: day.Add(24 * time.Hour), Type: models.RankingURL}
)

func TestChart_KeepsTopTenInInputOrder(t *testing.T) {
	f := &countingFetcher{rows: entries(15)}
	c := &Chart{Source: f}

	if _, err := c.Update(context.Background(), pages); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := c.Rankings()
	if len(got) != MaxRows {
		t.Fatalf("rendered %d rows, want %d", len(got), MaxRows)
	}
	for i, r := range got {
		if r.X != f.rows[i].X {
			t.Fatalf("row %d = %s, want %s", i, r.X, f.rows[i].X)
		}
	}

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != MaxRows+1 {
		t.Fatalf("rendered %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "/page-00") || !strings.HasPrefix(lines[10], "/page-09") {
		t.Fatalf("unexpected order:\n%s", buf.String())
	}
}

func TestChart_DataFilterRunsBeforeTopTen(t *testing.T) {
	c := &Chart{
		Source: &countingFetcher{rows: entries(15)},
		DataFilter: func(rows []models.Ranking) []models.Ranking {
			return rows[5:]
		},
	}
	c.Update(context.Background(), pages)

	got := c.Rankings()
	if len(got) != MaxRows || got[0].X != "/page-05" {
		t.Fatalf("filtered rows = %+v", got)
	}
}

func TestChart_RefetchesOnlyWhenParamsChange(t *testing.T) {
	f := &countingFetcher{rows: entries(3)}
	var loads int
	c := &Chart{Source: f, OnDataLoad: func([]models.Ranking) { loads++ }}
	ctx := context.Background()

	c.Update(ctx, pages)
	fetched, _ := c.Update(ctx, pages)
	if fetched || f.calls != 1 {
		t.Fatalf("unchanged params refetched: calls=%d", f.calls)
	}

	sameInstant := pages
	sameInstant.StartAt = day.In(time.FixedZone("X", 3600))
	c.Update(ctx, sameInstant)
	if f.calls != 1 {
		t.Fatal("same instant in another zone must not refetch")
	}

	next := pages
	next.Type = models.RankingReferrer
	c.Update(ctx, next)
	next.EndAt = next.EndAt.Add(time.Hour)
	c.Update(ctx, next)
	next.WebsiteID = "site-2"
	c.Update(ctx, next)

	if f.calls != 4 || loads != 4 {
		t.Fatalf("calls=%d loads=%d, want 4", f.calls, loads)
	}
}

func TestChart_NothingBeforeData(t *testing.T) {
	f := &countingFetcher{}
	c := &Chart{Source: f}

	if fetched, err := c.Update(context.Background(), Params{}); fetched || err != nil || f.calls != 0 {
		t.Fatalf("no website must not fetch: fetched=%v err=%v", fetched, err)
	}

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("render before load wrote %q (err %v)", buf.String(), err)
	}
}

func TestChart_FetchErrorKeepsPreviousData(t *testing.T) {
	f := &countingFetcher{rows: entries(2)}
	c := &Chart{Source: f}
	c.Update(context.Background(), pages)

	f.err = errors.New("offline")
	next := pages
	next.Type = models.RankingTitle
	if _, err := c.Update(context.Background(), next); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(c.Rankings()) != 2 {
		t.Fatal("previous data should remain")
	}
}

func TestChart_AnimateEndsAtFinalValues(t *testing.T) {
	c := &Chart{
		Source:  &countingFetcher{rows: models.PercentFilter([]models.Ranking{{X: "/a", Y: 30}, {X: "/b", Y: 10}})},
		Animate: true,
		Frames:  4,
	}
	c.Update(context.Background(), pages)

	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	frames := strings.Split(buf.String(), clearScreen)
	if len(frames) != 5 {
		t.Fatalf("got %d frames", len(frames)-1)
	}
	last := frames[4]
	if !strings.Contains(last, "30   75%") || !strings.Contains(last, "10   25%") {
		t.Fatalf("last frame:\n%s", last)
	}
	if strings.Contains(frames[1], "30   75%") {
		t.Fatal("first frame should not show final values")
	}
}

func TestClient_FetchSendsParamsAndComputesPercent(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotKey = r.Header.Get("X-API-Key")
		json.NewEncoder(w).Encode([]models.Ranking{{X: "/a", Y: 1}, {X: "/b", Y: 3}})
	}))
	defer srv.Close()

	rows, err := NewClient(srv.URL+"/", "k").Fetch(context.Background(), pages)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := fmt.Sprintf("/api/website/site-1/rankings?end_at=%d&start_at=%d&type=url", pages.EndAt.UnixMilli(), pages.StartAt.UnixMilli())
	if gotPath != want {
		t.Fatalf("path = %s, want %s", gotPath, want)
	}
	if gotKey != "k" {
		t.Fatalf("api key = %q", gotKey)
	}
	if len(rows) != 2 || rows[0].X != "/a" || rows[0].Z != 25 || rows[1].Z != 75 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unsupported ranking type"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Fetch(context.Background(), pages)
	if err == nil || !strings.Contains(err.Error(), "unsupported ranking type") {
		t.Fatalf("err = %v", err)
	}
}
