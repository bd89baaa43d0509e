package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/PratikDhanave/site-analytics/internal/models"
	"github.com/PratikDhanave/site-analytics/internal/tracing"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

const insertWebsiteEventSQL = `
	INSERT INTO website_event (
		event_id, website_id, session_id, visit_id,
		url_path, url_query, referrer_path, referrer_query, referrer_domain,
		page_title, event_type, event_name, tag, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

// PostgresStore is the relational persistence layer for website events.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// SQLX exposes the pool through database/sql for the event data store, so
// both share one set of connections.
func (p *PostgresStore) SQLX() *sqlx.DB {
	return sqlx.NewDb(stdlib.OpenDBFromPool(p.pool), "pgx")
}

// CreateWebsiteEvents inserts all events in a single transaction: either every
// row lands or none does.
func (p *PostgresStore) CreateWebsiteEvents(ctx context.Context, events []models.WebsiteEvent) error {
	ctx, span := tracing.Tracer().Start(ctx, "postgres.create_website_events")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertWebsiteEventSQL,
			e.ID, e.WebsiteID, e.SessionID, e.VisitID,
			e.URLPath, e.URLQuery, e.ReferrerPath, e.ReferrerQuery, e.ReferrerDomain,
			e.PageTitle, int(e.EventType), e.EventName, e.Tag, e.CreatedAt,
		)
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("create website events: %w", err)
	}
	return nil
}

// Rankings counts events per value of the ranking column in [StartAt, EndAt],
// highest count first.
func (p *PostgresStore) Rankings(ctx context.Context, q models.RankingsQuery) ([]models.Ranking, error) {
	col, err := lookupRanking(postgresRankings, q.Type)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT %[1]s AS x, COUNT(*) AS y
		FROM website_event
		WHERE website_id = $1
		  AND created_at BETWEEN $2 AND $3
		  AND event_type = $4
		  AND %[1]s IS NOT NULL AND %[1]s <> ''
		GROUP BY %[1]s
		ORDER BY y DESC, x ASC
	`, col.column), q.WebsiteID, q.StartAt.UTC(), q.EndAt.UTC(), int(col.eventType))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Ranking, error) {
		var (
			x string
			y int64
		)
		err := row.Scan(&x, &y)
		return models.Ranking{X: x, Y: float64(y)}, err
	})
}
