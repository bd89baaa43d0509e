// Package eventdata stores the free-form payloads attached to events, one row
// per leaf key.
package eventdata

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/PratikDhanave/site-analytics/internal/ingest"
	"github.com/PratikDhanave/site-analytics/internal/models"
)

// Flatten expands each payload into rows. Nested objects become dotted keys;
// nil values are dropped. Rows are ordered by key within each payload.
func Flatten(inputs []models.EventDataInput) []models.EventDataRow {
	var rows []models.EventDataRow
	for _, in := range inputs {
		if len(in.EventData) == 0 {
			continue
		}
		rows = flattenInto(rows, in, "", in.EventData)
	}
	return rows
}

func flattenInto(rows []models.EventDataRow, in models.EventDataInput, prefix string, data map[string]any) []models.EventDataRow {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		v := data[k]
		if nested, ok := v.(map[string]any); ok {
			rows = flattenInto(rows, in, key, nested)
			continue
		}

		row, ok := valueRow(v)
		if !ok {
			continue
		}
		row.ID = uuid.NewString()
		row.WebsiteID = in.WebsiteID
		row.WebsiteEventID = in.EventID
		row.SessionID = in.SessionID
		row.URLPath = in.URLPath
		row.EventName = in.EventName
		row.DataKey = ingest.Truncate(key, models.DataKeyLength)
		row.CreatedAt = in.CreatedAt
		rows = append(rows, row)
	}
	return rows
}

func valueRow(v any) (models.EventDataRow, bool) {
	var row models.EventDataRow
	switch x := v.(type) {
	case nil:
		return row, false
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			t = t.UTC()
			row.DataType = models.DataTypeDate
			row.DateValue = &t
			return row, true
		}
		row.DataType = models.DataTypeString
		row.StringValue = stringValue(x)
	case bool:
		row.DataType = models.DataTypeBoolean
		row.StringValue = stringValue(strconv.FormatBool(x))
	case float64:
		row.DataType = models.DataTypeNumber
		row.NumberValue = &x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			row.DataType = models.DataTypeString
			row.StringValue = stringValue(x.String())
			break
		}
		row.DataType = models.DataTypeNumber
		row.NumberValue = &f
	case int:
		f := float64(x)
		row.DataType = models.DataTypeNumber
		row.NumberValue = &f
	case int64:
		f := float64(x)
		row.DataType = models.DataTypeNumber
		row.NumberValue = &f
	case []any:
		b, err := json.Marshal(x)
		if err != nil {
			return row, false
		}
		row.DataType = models.DataTypeArray
		row.StringValue = stringValue(string(b))
	default:
		row.DataType = models.DataTypeString
		row.StringValue = stringValue(fmt.Sprint(x))
	}
	return row, true
}

func stringValue(s string) *string {
	s = ingest.Truncate(s, models.DataValueLength)
	return &s
}
