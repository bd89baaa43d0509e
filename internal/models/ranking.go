package models

import "time"

// Ranking is one row of a rankings chart: label, value and share of the total.
type Ranking struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RankingType names the dimension rankings are grouped by.
type RankingType string

const (
	RankingURL      RankingType = "url"
	RankingReferrer RankingType = "referrer"
	RankingTitle    RankingType = "title"
	RankingEvent    RankingType = "event"
	RankingBrowser  RankingType = "browser"
	RankingOS       RankingType = "os"
	RankingDevice   RankingType = "device"
	RankingCountry  RankingType = "country"
	RankingLanguage RankingType = "language"
	RankingScreen   RankingType = "screen"
	RankingHostname RankingType = "hostname"
	RankingCity     RankingType = "city"
)

// RankingsQuery selects rankings for a website over [StartAt, EndAt].
type RankingsQuery struct {
	WebsiteID string
	StartAt   time.Time
	EndAt     time.Time
	Type      RankingType
}

// PercentFilter fills Z with each entry's share of the summed Y, in percent.
func PercentFilter(rows []Ranking) []Ranking {
	var total float64
	for _, r := range rows {
		total += r.Y
	}
	out := make([]Ranking, len(rows))
	for i, r := range rows {
		r.Z = 0
		if total > 0 {
			r.Z = r.Y / total * 100
		}
		out[i] = r
	}
	return out
}
