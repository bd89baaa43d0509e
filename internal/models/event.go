package models

import "time"

// Field limits applied to stored events. Longer values are truncated.
const (
	URLLength       = 500
	PageTitleLength = 500
	EventNameLength = 50
	TagLength       = 50
)

// ClickHouseTimeLayout is the zone-less UTC DateTime format used for every
// columnar created_at, on insert and on the broker.
const ClickHouseTimeLayout = "2006-01-02 15:04:05"

// EventType distinguishes page views from custom events.
type EventType int

const (
	EventTypePageView    EventType = 1
	EventTypeCustomEvent EventType = 2
)

// SaveEventRequest is a logical event write, before it is shaped for a backend.
// Optional string fields use "" for absent.
type SaveEventRequest struct {
	WebsiteID string
	SessionID string
	VisitID   string

	URLPath        string
	URLQuery       string
	ReferrerPath   string
	ReferrerQuery  string
	ReferrerDomain string
	PageTitle      string
	EventName      string
	Tag            string

	// EventData is the single payload; EventBatchData one payload per record.
	EventData      map[string]any
	EventBatchData []map[string]any

	Hostname     string
	Browser      string
	OS           string
	Device       string
	Screen       string
	Language     string
	Country      string
	Subdivision1 string
	Subdivision2 string
	City         string
}

// WebsiteEvent is a row of the relational website_event table.
type WebsiteEvent struct {
	ID             string    `json:"id"`
	WebsiteID      string    `json:"websiteId"`
	SessionID      string    `json:"sessionId"`
	VisitID        string    `json:"visitId"`
	URLPath        *string   `json:"urlPath"`
	URLQuery       *string   `json:"urlQuery"`
	ReferrerPath   *string   `json:"referrerPath"`
	ReferrerQuery  *string   `json:"referrerQuery"`
	ReferrerDomain *string   `json:"referrerDomain"`
	PageTitle      *string   `json:"pageTitle"`
	EventType      EventType `json:"eventType"`
	EventName      *string   `json:"eventName"`
	Tag            *string   `json:"tag"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ClickHouseEvent is a row of the columnar website_event table, also the
// message body published to the event topic.
type ClickHouseEvent struct {
	WebsiteID      string    `json:"website_id"`
	SessionID      string    `json:"session_id"`
	VisitID        string    `json:"visit_id"`
	EventID        string    `json:"event_id"`
	Hostname       *string   `json:"hostname"`
	Browser        *string   `json:"browser"`
	OS             *string   `json:"os"`
	Device         *string   `json:"device"`
	Screen         *string   `json:"screen"`
	Language       *string   `json:"language"`
	Country        *string   `json:"country"`
	Subdivision1   *string   `json:"subdivision1"`
	Subdivision2   *string   `json:"subdivision2"`
	City           *string   `json:"city"`
	URLPath        *string   `json:"url_path"`
	URLQuery       *string   `json:"url_query"`
	ReferrerPath   *string   `json:"referrer_path"`
	ReferrerQuery  *string   `json:"referrer_query"`
	ReferrerDomain *string   `json:"referrer_domain"`
	PageTitle      *string   `json:"page_title"`
	EventType      EventType `json:"event_type"`
	EventName      *string   `json:"event_name"`
	Tag            *string   `json:"tag"`
	CreatedAt      string    `json:"created_at"`
}

// EventDataInput ties one free-form payload to the event that carried it.
type EventDataInput struct {
	WebsiteID string
	SessionID string
	VisitID   string
	EventID   string
	URLPath   string
	EventName string
	EventData map[string]any
	CreatedAt time.Time
}

// CollectRequest is the POST /api/send payload.
type CollectRequest struct {
	Type    string         `json:"type"`
	Payload CollectPayload `json:"payload"`
}

// CollectPayload carries the tracker fields. URL and referrer are full URLs.
type CollectPayload struct {
	Website      string           `json:"website"`
	Session      string           `json:"session,omitempty"`
	Visit        string           `json:"visit,omitempty"`
	URL          string           `json:"url"`
	Referrer     string           `json:"referrer,omitempty"`
	Title        string           `json:"title,omitempty"`
	Name         string           `json:"name,omitempty"`
	Tag          string           `json:"tag,omitempty"`
	Data         map[string]any   `json:"data,omitempty"`
	Batch        []map[string]any `json:"batch,omitempty"`
	Hostname     string           `json:"hostname,omitempty"`
	Browser      string           `json:"browser,omitempty"`
	OS           string           `json:"os,omitempty"`
	Device       string           `json:"device,omitempty"`
	Screen       string           `json:"screen,omitempty"`
	Language     string           `json:"language,omitempty"`
	Country      string           `json:"country,omitempty"`
	Subdivision1 string           `json:"subdivision1,omitempty"`
	Subdivision2 string           `json:"subdivision2,omitempty"`
	City         string           `json:"city,omitempty"`
}

// CollectResponse is returned by POST /api/send.
type CollectResponse struct {
	SessionID string   `json:"session_id"`
	VisitID   string   `json:"visit_id"`
	EventIDs  []string `json:"event_ids"`
}
