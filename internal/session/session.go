// Package session persists resolved Q&A exchanges and query metrics in
// Postgres. Everything here is best-effort from the resolver's point of
// view; callers log and continue on error.
package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"handbook-rag/internal/models"
	"handbook-rag/internal/resolver"
)

var (
	_ resolver.SessionSink       = (*Store)(nil)
	_ resolver.TelemetryRecorder = (*Store)(nil)
)

type Exchange struct {
	bun.BaseModel `bun:"table:qa_sessions,alias:s"`
	ID            string    `bun:"id,pk"`
	Question      string    `bun:"question,notnull"`
	Answer        string    `bun:"answer,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type QueryMetric struct {
	bun.BaseModel `bun:"table:query_metrics,alias:m"`
	ID            int64     `bun:"id,pk,autoincrement"`
	SessionID     string    `bun:"session_id,notnull"`
	DurationMS    int64     `bun:"duration_ms,notnull"`
	AnswerLength  int       `bun:"answer_length,notnull"`
	SourceCount   int       `bun:"source_count,notnull"`
	Fallback      bool      `bun:"fallback,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Store is the Postgres-backed session/telemetry sink.
type Store struct {
	db *bun.DB
}

func Connect(dsn string, debug bool) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

// Init creates the sink tables when they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Exchange)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewCreateTable().Model((*QueryMetric)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Store) StoreExchange(ctx context.Context, exchange models.QAExchange) error {
	row := &Exchange{
		ID:        exchange.SessionID,
		Question:  exchange.Question,
		Answer:    exchange.Answer,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *Store) RecordQuery(ctx context.Context, metrics models.QueryMetrics) error {
	row := &QueryMetric{
		SessionID:    metrics.SessionID,
		DurationMS:   metrics.Duration.Milliseconds(),
		AnswerLength: metrics.AnswerLength,
		SourceCount:  metrics.SourceCount,
		Fallback:     metrics.Fallback,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
