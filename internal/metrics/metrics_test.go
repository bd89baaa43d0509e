package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_ExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	EventsWritten.WithLabelValues("postgresql").Add(0)
	WriteErrors.WithLabelValues("event").Add(0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"analytics_events_written_total",
		"analytics_write_errors_total",
		"analytics_write_duration_seconds",
		"analytics_event_data_rows_total",
	} {
		if !names[want] {
			t.Fatalf("%s not registered, got %v", want, names)
		}
	}
}

func TestEventDataRows_Increments(t *testing.T) {
	before := testutil.ToFloat64(EventDataRows)
	EventDataRows.Add(3)
	if got := testutil.ToFloat64(EventDataRows) - before; got != 3 {
		t.Fatalf("delta = %v, want 3", got)
	}
}
