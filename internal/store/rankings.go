package store

import (
	"errors"
	"fmt"

	"github.com/PratikDhanave/site-analytics/internal/models"
)

// ErrUnsupportedRanking is returned for a ranking type the backend cannot group by.
var ErrUnsupportedRanking = errors.New("unsupported ranking type")

// rankingColumn is the grouped column and the event type it counts.
type rankingColumn struct {
	column    string
	eventType models.EventType
}

// postgresRankings covers the columns of the relational website_event table.
var postgresRankings = map[models.RankingType]rankingColumn{
	models.RankingURL:      {"url_path", models.EventTypePageView},
	models.RankingReferrer: {"referrer_domain", models.EventTypePageView},
	models.RankingTitle:    {"page_title", models.EventTypePageView},
	models.RankingEvent:    {"event_name", models.EventTypeCustomEvent},
}

// clickhouseRankings adds the session attributes stored on each columnar row.
var clickhouseRankings = map[models.RankingType]rankingColumn{
	models.RankingURL:      {"url_path", models.EventTypePageView},
	models.RankingReferrer: {"referrer_domain", models.EventTypePageView},
	models.RankingTitle:    {"page_title", models.EventTypePageView},
	models.RankingEvent:    {"event_name", models.EventTypeCustomEvent},
	models.RankingBrowser:  {"browser", models.EventTypePageView},
	models.RankingOS:       {"os", models.EventTypePageView},
	models.RankingDevice:   {"device", models.EventTypePageView},
	models.RankingCountry:  {"country", models.EventTypePageView},
	models.RankingLanguage: {"language", models.EventTypePageView},
	models.RankingScreen:   {"screen", models.EventTypePageView},
	models.RankingHostname: {"hostname", models.EventTypePageView},
	models.RankingCity:     {"city", models.EventTypePageView},
}

func lookupRanking(table map[models.RankingType]rankingColumn, t models.RankingType) (rankingColumn, error) {
	c, ok := table[t]
	if !ok {
		return rankingColumn{}, fmt.Errorf("%w: %q", ErrUnsupportedRanking, t)
	}
	return c, nil
}
