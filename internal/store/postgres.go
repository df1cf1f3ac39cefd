package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Can0Ngu1/bot-web/internal/model"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// PostgresArchive stores the record archive in a biddings table. Rows are
// keyed by bid code; insertion order gives the newest-first read order.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive ensures the biddings table exists and returns the
// archive.
func NewPostgresArchive(ctx context.Context, pool *pgxpool.Pool) (*PostgresArchive, error) {
	_, err := pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS biddings (
		   id         BIGSERIAL PRIMARY KEY,
		   code       TEXT NOT NULL UNIQUE,
		   title      TEXT NOT NULL,
		   post_date  TEXT NOT NULL,
		   close_date TEXT NOT NULL,
		   org        TEXT NOT NULL,
		   link       TEXT NOT NULL DEFAULT '',
		   status     TEXT NOT NULL DEFAULT 'NEW',
		   created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`)
	if err != nil {
		return nil, fmt.Errorf("create biddings table: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

// Prepend inserts records, skipping codes already archived. Failed rows are
// logged and skipped; the first error is returned so the caller can record
// the partial write.
func (a *PostgresArchive) Prepend(ctx context.Context, records []model.BidRecord) error {
	var firstErr error
	inserted := 0
	for _, r := range records {
		tag, err := a.pool.Exec(ctx,
			`INSERT INTO biddings (code, title, post_date, close_date, org, link, status)
			 SELECT $1, $2, $3, $4, $5, $6, $7
			 WHERE NOT EXISTS (
			   SELECT 1 FROM biddings WHERE code = $1
			 )`,
			r.Code, r.Title, r.PostDate, r.CloseDate, r.Org, r.Link, string(r.Status),
		)
		if err != nil {
			log.Printf("[store] Insert %s failed: %v", r.Code, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("insert %s: %w", r.Code, err)
			}
			continue
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}
	log.Printf("[store] Archived %d record(s) to postgres", inserted)
	return firstErr
}

// All returns the archive newest-first.
func (a *PostgresArchive) All(ctx context.Context) ([]model.BidRecord, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT code, title, post_date, close_date, org, link, status
		 FROM biddings
		 ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query biddings: %w", err)
	}
	defer rows.Close()

	var records []model.BidRecord
	for rows.Next() {
		var r model.BidRecord
		var status string
		if err := rows.Scan(&r.Code, &r.Title, &r.PostDate, &r.CloseDate, &r.Org, &r.Link, &status); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		r.Status = model.Status(status)
		records = append(records, r)
	}
	return records, rows.Err()
}
