package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_written_total",
			Help: "Website events written, by backend (postgresql, clickhouse, kafka)",
		},
		[]string{"backend"},
	)

	WriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_write_errors_total",
			Help: "Failed writes, by stage (event, event_data)",
		},
		[]string{"stage"},
	)

	WriteLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_write_duration_seconds",
			Help:    "Time to complete an event write including its event data",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventDataRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_event_data_rows_total",
			Help: "Flattened event data rows written",
		},
	)
)

// Register adds the collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(EventsWritten, WriteErrors, WriteLatency, EventDataRows)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
