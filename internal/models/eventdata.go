package models

import "time"

// DataType tags how an event data value is stored.
type DataType int

const (
	DataTypeString  DataType = 1
	DataTypeNumber  DataType = 2
	DataTypeBoolean DataType = 3
	DataTypeDate    DataType = 4
	DataTypeArray   DataType = 5
)

// Limits for flattened event data.
const (
	DataKeyLength   = 500
	DataValueLength = 500
)

// EventDataRow is one flattened key of an event payload.
type EventDataRow struct {
	ID             string     `db:"event_data_id" json:"event_data_id"`
	WebsiteID      string     `db:"website_id" json:"website_id"`
	WebsiteEventID string     `db:"website_event_id" json:"event_id"`
	SessionID      string     `db:"-" json:"session_id"`
	URLPath        string     `db:"-" json:"url_path"`
	EventName      string     `db:"-" json:"event_name"`
	DataKey        string     `db:"data_key" json:"data_key"`
	StringValue    *string    `db:"string_value" json:"string_value"`
	NumberValue    *float64   `db:"number_value" json:"number_value"`
	DateValue      *time.Time `db:"date_value" json:"date_value"`
	DataType       DataType   `db:"data_type" json:"data_type"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ClickHouseEventData is an EventDataRow as inserted into, or published for,
// the columnar event_data table. Times use ClickHouseTimeLayout in UTC so they
// line up with website_event.created_at.
type ClickHouseEventData struct {
	ID             string   `json:"event_data_id"`
	WebsiteID      string   `json:"website_id"`
	WebsiteEventID string   `json:"event_id"`
	SessionID      string   `json:"session_id"`
	URLPath        string   `json:"url_path"`
	EventName      string   `json:"event_name"`
	DataKey        string   `json:"data_key"`
	StringValue    *string  `json:"string_value"`
	NumberValue    *float64 `json:"number_value"`
	DateValue      *string  `json:"date_value"`
	DataType       DataType `json:"data_type"`
	CreatedAt      string   `json:"created_at"`
}

// Columnar converts r for the columnar event_data table.
func (r EventDataRow) Columnar() ClickHouseEventData {
	out := ClickHouseEventData{
		ID:             r.ID,
		WebsiteID:      r.WebsiteID,
		WebsiteEventID: r.WebsiteEventID,
		SessionID:      r.SessionID,
		URLPath:        r.URLPath,
		EventName:      r.EventName,
		DataKey:        r.DataKey,
		StringValue:    r.StringValue,
		NumberValue:    r.NumberValue,
		DataType:       r.DataType,
		CreatedAt:      r.CreatedAt.UTC().Format(ClickHouseTimeLayout),
	}
	if r.DateValue != nil {
		d := r.DateValue.UTC().Format(ClickHouseTimeLayout)
		out.DateValue = &d
	}
	return out
}
