package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PratikDhanave/site-analytics/internal/broker"
	"github.com/PratikDhanave/site-analytics/internal/config"
	"github.com/PratikDhanave/site-analytics/internal/eventdata"
	"github.com/PratikDhanave/site-analytics/internal/httpserver"
	"github.com/PratikDhanave/site-analytics/internal/ingest"
	"github.com/PratikDhanave/site-analytics/internal/metrics"
	"github.com/PratikDhanave/site-analytics/internal/store"
	"github.com/PratikDhanave/site-analytics/internal/tracing"
)

// main boots the service: config → backend → schema → writer → HTTP server.
func main() {
	// Load runtime config from environment (DATABASE_TYPE, DB_URL, CLICKHOUSE_*, KAFKA_*, API_KEYS).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := tracing.Init(ctx, "site-analytics", cfg.OTLPEndpoint); err != nil {
		log.Fatal(err)
	}
	defer tracing.Shutdown(ctx)

	metrics.Register(prometheus.DefaultRegisterer)

	var (
		st     httpserver.Store
		writer *ingest.Writer
	)

	switch cfg.Backend {
	case config.BackendPostgres:
		// Connect to durable storage (Postgres) using a connection pool.
		db, err := store.NewPostgresStore(cfg.DBURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()

		// Ensure required tables/indexes exist so `docker compose up --build` is enough.
		if err := db.EnsureSchema(); err != nil {
			log.Fatal(err)
		}

		writer, err = ingest.New(ingest.Options{
			Backend:    cfg.Backend,
			Relational: db,
			EventData:  eventdata.NewSQLStore(db.SQLX()),
		})
		if err != nil {
			log.Fatal(err)
		}
		st = db

	case config.BackendClickHouse:
		ch := store.NewClickHouseStore(store.ClickHouseConfig{
			URL:      cfg.ClickHouseURL,
			Database: cfg.ClickHouseDB,
			User:     cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		})

		opts := ingest.Options{
			Backend:    cfg.Backend,
			Columnar:   ch,
			EventTopic: cfg.KafkaTopicEvent,
			EventData:  eventdata.NewColumnarStore(ch, nil, cfg.KafkaTopicEventData),
		}
		if cfg.KafkaEnabled() {
			k := broker.NewKafka(cfg.KafkaBrokers)
			defer k.Close()
			opts.Publisher = k
			opts.EventData = eventdata.NewColumnarStore(ch, k, cfg.KafkaTopicEventData)
		}

		writer, err = ingest.New(opts)
		if err != nil {
			log.Fatal(err)
		}
		st = ch
	}

	if len(cfg.APIKeys) == 0 {
		log.Println("API_KEYS not set: rankings are readable without a key")
	}

	// Build HTTP router (public health + collect, keyed rankings).
	router := httpserver.NewRouter(cfg, st, writer)

	log.Printf("server started on %s backend=%s kafka=%v", cfg.HTTPAddr, cfg.Backend, cfg.KafkaEnabled())
	log.Fatal(router.Run(cfg.HTTPAddr))
}
